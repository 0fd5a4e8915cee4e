package project

import (
	"fmt"
	"slices"

	"github.com/manav03panchal/mindstore/internal/model"
)

// Built-in template names.
const (
	TemplateBlank      = "blank"
	TemplateMindmap    = "mindmap"
	TemplateBrainstorm = "brainstorm"
)

// Template seeds the graph of a new project.
type Template struct {
	Name        string
	Description string
	build       func(title string) ([]model.Node, []model.Edge)
}

var builtinTemplates = map[string]Template{
	TemplateBlank: {
		Name:        TemplateBlank,
		Description: "A single root topic",
		build: func(title string) ([]model.Node, []model.Edge) {
			return []model.Node{node("root", model.NodeTypeTopic, 0, 0, title)}, nil
		},
	},
	TemplateMindmap: {
		Name:        TemplateMindmap,
		Description: "A root topic with four branches",
		build: func(title string) ([]model.Node, []model.Edge) {
			nodes := []model.Node{node("root", model.NodeTypeTopic, 0, 0, title)}
			var edges []model.Edge
			offsets := []model.Position{{X: -240, Y: -160}, {X: 240, Y: -160}, {X: -240, Y: 160}, {X: 240, Y: 160}}
			for i, pos := range offsets {
				id := fmt.Sprintf("branch-%d", i+1)
				nodes = append(nodes, node(id, model.NodeTypeIdea, pos.X, pos.Y, fmt.Sprintf("Branch %d", i+1)))
				edges = append(edges, edge("root", id))
			}
			return nodes, edges
		},
	},
	TemplateBrainstorm: {
		Name:        TemplateBrainstorm,
		Description: "A central question with ideas, a task and a note",
		build: func(title string) ([]model.Node, []model.Edge) {
			nodes := []model.Node{
				node("question", model.NodeTypeQuestion, 0, 0, title),
				node("idea-1", model.NodeTypeIdea, -260, -120, "Idea"),
				node("idea-2", model.NodeTypeIdea, 260, -120, "Idea"),
				node("idea-3", model.NodeTypeIdea, 0, -220, "Idea"),
				node("next", model.NodeTypeTask, 0, 200, "Next step"),
				node("notes", model.NodeTypeNote, 320, 160, "Notes"),
			}
			var edges []model.Edge
			for _, n := range nodes[1:] {
				edges = append(edges, edge("question", n.ID))
			}
			return nodes, edges
		},
	},
}

func node(id, typ string, x, y float64, label string) model.Node {
	return model.Node{
		ID:       id,
		Type:     typ,
		Position: model.Position{X: x, Y: y},
		Data:     map[string]any{"label": label},
	}
}

func edge(source, target string) model.Edge {
	return model.Edge{ID: source + "->" + target, Source: source, Target: target}
}

// BuiltinTemplates lists the built-in templates by name.
func BuiltinTemplates() []Template {
	names := make([]string, 0, len(builtinTemplates))
	for n := range builtinTemplates {
		names = append(names, n)
	}
	slices.Sort(names)
	out := make([]Template, 0, len(names))
	for _, n := range names {
		out = append(out, builtinTemplates[n])
	}
	return out
}
