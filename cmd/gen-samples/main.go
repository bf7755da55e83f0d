// Command gen-samples writes a set of sample workflows into a directory,
// ready to be simulated with "flowcanvas run <name> --dir <dir>".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/pkg/adapters/file"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/dsl"
)

type sample struct {
	name  string
	build func(b *dsl.Builder)
}

var samples = []sample{
	{"main", func(b *dsl.Builder) {
		b.Add("start").Start("Start").
			Then("assistant").Agent("Assistant").
			Then("end").End("End")
	}},
	{"support-triage", func(b *dsl.Builder) {
		b.Add("start").Start("Support request").Go("pii")
		b.Add("pii").Guardrail("PII filter").Go("triage")
		b.Add("triage").Agent("Triage Agent").Go("urgent")
		b.Add("urgent").Condition("Is urgent?").
			Branch(domain.HandleTrue, "page").
			Branch(domain.HandleFalse, "reply")
		b.Add("page").Tool("Pager").Go("end")
		b.Add("reply").Agent("Reply Agent").Go("end")
		b.Add("end").End("Resolved")
		b.Add("memo").Note("Pager only fires during business hours")
	}},
	{"research", func(b *dsl.Builder) {
		b.Add("start").Start("Topic").
			Then("planner").Agent("Planner").
			Then("search").Tool("Web Search").
			Then("writer").Agent("Writer").
			Then("review").Guardrail("Fact check").
			Then("end").End("Report")
	}},
}

func main() {
	dir := flag.String("dir", "workflows", "Directory to write the samples into")
	format := flag.String("format", "yaml", "File format (yaml, json)")
	flag.Parse()

	var opts []file.Option
	if *format == "json" {
		opts = append(opts, file.WithFormat(file.FormatJSON))
	}
	store, err := file.New(*dir, opts...)
	check(err)

	ctx := context.TODO()
	for _, s := range samples {
		b := dsl.New()
		s.build(b)
		g, err := b.Build()
		check(err)
		check(store.Save(ctx, &domain.Workflow{Name: s.name, Graph: g}))
		fmt.Println("wrote", s.name)
	}

	fmt.Println("Done. Verify contents in", *dir)
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
