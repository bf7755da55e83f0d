/*
Package dsl provides a Go DSL for programmatically constructing FlowCanvas workflow graphs.

It allows developers to define workflows with a type-safe, fluent builder instead of
drawing them on the canvas or writing YAML by hand. This is particularly useful for
seeding sample workflows, unit testing, and generating graphs from other sources.

Example usage:

	b := dsl.New()

	b.Add("start").Start("Start").Go("triage")

	b.Add("triage").Agent("Triage Agent").Go("urgent")

	b.Add("urgent").Condition("Is urgent?").
		Branch(domain.HandleTrue, "page").
		Branch(domain.HandleFalse, "end")

	b.Add("page").Tool("Pager").Go("end")

	b.Add("end").End("Done")

	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	// g is a domain.Graph: load it into a workspace or save it as a workflow.
*/
package dsl
