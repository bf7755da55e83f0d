// Package codegen renders a workflow graph as an agent program skeleton.
package codegen

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Language is a code generation target.
type Language string

const (
	Python     Language = "python"
	TypeScript Language = "typescript"
)

// Languages lists the supported targets.
var Languages = []Language{Python, TypeScript}

// ErrUnknownLanguage is returned for an unsupported target.
var ErrUnknownLanguage = errors.New("unknown language")

// ParseLanguage accepts a language name or its usual short form.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return Python, nil
	case "typescript", "ts":
		return TypeScript, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// Fence returns the markdown code fence tag of l.
func (l Language) Fence() string {
	if l == TypeScript {
		return "ts"
	}
	return "python"
}

var templates = template.Must(template.New("codegen").Funcs(template.FuncMap{
	"quote": quote,
}).Parse(pythonTemplate + typescriptTemplate))

// Generate renders g as a program named name in lang.
// Output depends only on its inputs.
func Generate(lang Language, g domain.Graph, name string) (string, error) {
	var tmpl string
	switch lang {
	case Python:
		tmpl = "python"
	case TypeScript:
		tmpl = "typescript"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, tmpl, newModel(g, name, lang)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type model struct {
	Name       string
	Agents     []entity
	Tools      []entity
	Guardrails []entity
	Steps      []step
}

type entity struct {
	Ident string
	Label string
	Tools []string // idents of tools directly downstream of an agent
}

type step struct {
	Type  domain.NodeType
	Ident string
	Label string
}

func newModel(g domain.Graph, name string, lang Language) model {
	if strings.TrimSpace(name) == "" {
		name = "Workflow"
	}
	m := model{Name: name}

	idents := make(map[string]string, len(g.Nodes))
	taken := make(map[string]int)
	for _, n := range g.Nodes {
		base := identifier(n.DisplayLabel(), lang)
		taken[base]++
		if c := taken[base]; c > 1 {
			base = fmt.Sprintf("%s%s%d", base, sep(lang), c)
		}
		idents[n.ID] = base
	}

	for _, n := range order(g) {
		id := idents[n.ID]
		switch n.Type {
		case domain.NodeTypeAgent:
			e := entity{Ident: id, Label: n.DisplayLabel()}
			for _, s := range g.Successors(n.ID) {
				if s.Type == domain.NodeTypeTool {
					e.Tools = append(e.Tools, idents[s.ID])
				}
			}
			m.Agents = append(m.Agents, e)
		case domain.NodeTypeTool:
			m.Tools = append(m.Tools, entity{Ident: id, Label: n.DisplayLabel()})
		case domain.NodeTypeGuardrail:
			m.Guardrails = append(m.Guardrails, entity{Ident: id, Label: n.DisplayLabel()})
		case domain.NodeTypeStart, domain.NodeTypeEnd, domain.NodeTypeNote:
			continue
		}
		if n.Type != domain.NodeTypeTool {
			m.Steps = append(m.Steps, step{Type: n.Type, Ident: id, Label: n.DisplayLabel()})
		}
	}
	return m
}

// order lists nodes depth-first from the start nodes, followed by unreachable nodes in graph order.
func order(g domain.Graph) []domain.Node {
	seen := make(map[string]bool, len(g.Nodes))
	out := make([]domain.Node, 0, len(g.Nodes))
	var visit func(n domain.Node)
	visit = func(n domain.Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n)
		for _, s := range g.Successors(n.ID) {
			visit(s)
		}
	}
	for _, s := range g.StartNodes() {
		visit(s)
	}
	for _, n := range g.Nodes {
		visit(n)
	}
	return out
}

func sep(lang Language) string {
	if lang == Python {
		return "_"
	}
	return ""
}

// identifier turns a label into snake_case for Python and camelCase otherwise.
func identifier(label string, lang Language) string {
	var words []string
	var cur strings.Builder
	for _, r := range label {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	if len(words) == 0 {
		words = []string{"node"}
	}

	var id string
	if lang == Python {
		id = strings.Join(words, "_")
	} else {
		id = words[0]
		for _, w := range words[1:] {
			id += strings.ToUpper(w[:1]) + w[1:]
		}
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "n" + sep(lang) + id
	}
	return id
}

// quote renders s as a double-quoted string literal valid in both targets.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
