package tools

import (
	"strings"

	"github.com/bobmcallan/gqlbridge/internal/schema"
)

// typenameField is selected in place of anything depth- or cycle-pruned so a
// selection set is never empty.
const typenameField = "__typename"

// SelectionNode is one field in a synthesized selection document. A node
// with no children is a scalar (or __typename) leaf.
type SelectionNode struct {
	Name     string
	Children []*SelectionNode
}

// BuildSelection synthesizes the result selection for a tool returning the
// given type. Object fields are descended while depth remains and their type
// is not already open on the current path; everything pruned collapses to a
// __typename leaf. maxDepth bounds the document size regardless of schema
// cycles. openTypes names types already resolved above this selection in the
// rendered operation (the ancestors of a nested tool's field chain); the
// selection never re-expands them.
func BuildSelection(s *schema.Schema, ref *schema.TypeRef, maxDepth int, openTypes ...string) []*SelectionNode {
	named := ref.Named()
	t := s.Type(named.Name)
	if t == nil || !isCompositeKind(t.Kind) {
		return nil
	}
	open := map[string]bool{t.Name: true}
	for _, name := range openTypes {
		open[name] = true
	}
	children := selectFields(s, t, 0, maxDepth, open)
	if len(children) == 0 {
		children = []*SelectionNode{{Name: typenameField}}
	}
	return children
}

func isCompositeKind(kind string) bool {
	return kind == schema.KindObject || kind == schema.KindInterface || kind == schema.KindUnion
}

// selectFields builds the selection for one type at the given depth. The
// open set holds every type name already on the descent path.
func selectFields(s *schema.Schema, t *schema.Type, depth, maxDepth int, open map[string]bool) []*SelectionNode {
	if t.Kind == schema.KindUnion {
		return []*SelectionNode{{Name: typenameField}}
	}

	var out []*SelectionNode
	typenameAdded := false
	addTypename := func() {
		if !typenameAdded {
			out = append(out, &SelectionNode{Name: typenameField})
			typenameAdded = true
		}
	}

	for _, f := range t.Fields {
		named := f.Type.Named()
		fieldType := s.Type(named.Name)
		if fieldType == nil {
			continue
		}

		switch fieldType.Kind {
		case schema.KindScalar, schema.KindEnum:
			out = append(out, &SelectionNode{Name: f.Name})

		case schema.KindObject, schema.KindInterface, schema.KindUnion:
			if open[fieldType.Name] || depth+1 >= maxDepth {
				addTypename()
				continue
			}
			open[fieldType.Name] = true
			children := selectFields(s, fieldType, depth+1, maxDepth, open)
			delete(open, fieldType.Name)
			if len(children) == 0 {
				children = []*SelectionNode{{Name: typenameField}}
			}
			out = append(out, &SelectionNode{Name: f.Name, Children: children})
		}
	}

	return out
}

// RenderSelection writes a selection set in GraphQL syntax, e.g.
// "{ id name posts { title __typename } }".
func RenderSelection(nodes []*SelectionNode) string {
	var b strings.Builder
	writeSelection(&b, nodes)
	return b.String()
}

func writeSelection(b *strings.Builder, nodes []*SelectionNode) {
	b.WriteString("{ ")
	for _, n := range nodes {
		b.WriteString(n.Name)
		if len(n.Children) > 0 {
			b.WriteByte(' ')
			writeSelection(b, n.Children)
		}
		b.WriteByte(' ')
	}
	b.WriteByte('}')
}
