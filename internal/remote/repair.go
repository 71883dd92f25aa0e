package remote

import "strings"

// genericCollectionNames are field names treated as collections by the last
// heuristic tier.
var genericCollectionNames = map[string]bool{
	"children":   true,
	"items":      true,
	"results":    true,
	"data":       true,
	"list":       true,
	"components": true,
	"systems":    true,
}

// repairNullLists rewrites null values to empty lists where the field is
// list-typed. The calling protocol validates tool output against a declared
// list-typed schema and rejects null where [] is expected; this is a
// compatibility shim, not GraphQL semantics.
//
// Three fallback tiers, in order: the introspected list-field cache, then a
// same-named field observed as a list elsewhere in this response, then a
// collection-name heuristic. All other nulls are left untouched.
func (c *Client) repairNullLists(data any) any {
	seenLists := make(map[string]bool)
	collectListFields(data, seenLists)
	return c.repairValue(data, seenLists)
}

// collectListFields records every field name whose value is a list anywhere
// in the response.
func collectListFields(data any, seen map[string]bool) {
	switch v := data.(type) {
	case map[string]any:
		for key, value := range v {
			if _, ok := value.([]any); ok {
				seen[key] = true
			}
			collectListFields(value, seen)
		}
	case []any:
		for _, item := range v {
			collectListFields(item, seen)
		}
	}
}

func (c *Client) repairValue(data any, seenLists map[string]bool) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if value == nil && c.shouldConvertToList(key, seenLists) {
				out[key] = []any{}
				continue
			}
			out[key] = c.repairValue(value, seenLists)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.repairValue(item, seenLists)
		}
		return out
	default:
		return data
	}
}

func (c *Client) shouldConvertToList(fieldName string, seenLists map[string]bool) bool {
	// Tier 1: introspected schema knowledge.
	if isList, known := c.isListFieldAnyType(fieldName); known {
		return isList
	}

	// Tier 2: a same-named field elsewhere in this response was a list.
	if seenLists[fieldName] {
		return true
	}

	// Tier 3: collection-name guessing, last resort.
	if strings.HasSuffix(fieldName, "s") || strings.HasSuffix(fieldName, "es") {
		return true
	}
	return genericCollectionNames[fieldName]
}
