package remote

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// Cache population states. Transitioned away from cacheNotAttempted exactly
// once per client; a failure leaves the repair path on heuristics for the
// rest of the process lifetime instead of re-introspecting on every call.
const (
	cacheNotAttempted int32 = iota
	cachePopulated
	cacheFailedFallback
)

// listFieldsQuery is the reduced introspection document used to learn which
// fields are list-typed. Three levels of ofType cover NON_NULL(LIST(...)).
const listFieldsQuery = `query IntrospectionQuery {
  __schema {
    types {
      name
      kind
      fields {
        name
        type {
          name
          kind
          ofType {
            name
            kind
            ofType {
              name
              kind
            }
          }
        }
      }
    }
  }
}`

type listFieldsData struct {
	Schema struct {
		Types []struct {
			Name   string `json:"name"`
			Kind   string `json:"kind"`
			Fields []struct {
				Name string       `json:"name"`
				Type *listTypeRef `json:"type"`
			} `json:"fields"`
		} `json:"types"`
	} `json:"__schema"`
}

type listTypeRef struct {
	Name   string       `json:"name"`
	Kind   string       `json:"kind"`
	OfType *listTypeRef `json:"ofType"`
}

// isListRef reports whether a type reference is a list, counting a list
// wrapped in NON_NULL.
func isListRef(ref *listTypeRef) bool {
	if ref == nil {
		return false
	}
	if ref.Kind == "LIST" {
		return true
	}
	return ref.Kind == "NON_NULL" && ref.OfType != nil && ref.OfType.Kind == "LIST"
}

// ensurePopulated introspects the remote schema at most once per client and
// records which (type, field) pairs are list-typed. Failures are logged and
// mark the cache attempted so later lookups fall back to heuristics.
//
// Concurrent first calls may each run the introspection redundantly; the
// last writer wins and the map is swapped in atomically.
func (c *Client) ensurePopulated(ctx context.Context) {
	if atomic.LoadInt32(&c.cacheState) != cacheNotAttempted {
		return
	}

	raw, err := c.rawExecute(ctx, listFieldsQuery)
	if err != nil {
		c.logger.Warn().Str("error", err.Error()).Msg("schema introspection failed, null repair falls back to heuristics")
		atomic.StoreInt32(&c.cacheState, cacheFailedFallback)
		return
	}

	var parsed listFieldsData
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Warn().Str("error", err.Error()).Msg("could not parse introspection response")
		atomic.StoreInt32(&c.cacheState, cacheFailedFallback)
		return
	}

	fields := make(map[string]map[string]bool, len(parsed.Schema.Types))
	for _, t := range parsed.Schema.Types {
		if len(t.Fields) == 0 {
			continue
		}
		byField := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			byField[f.Name] = isListRef(f.Type)
		}
		fields[t.Name] = byField
	}

	c.listFields.Store(&fields)
	atomic.StoreInt32(&c.cacheState, cachePopulated)
	c.logger.Debug().Int("types", len(fields)).Msg("schema introspected for list fields")
}

// IsListField reports whether the cache knows a field to be list-typed.
// The second return is false when the cache holds no answer, in which case
// the repair path uses shape and naming heuristics instead.
func (c *Client) IsListField(typeName, fieldName string) (isList, known bool) {
	fields := c.listFields.Load()
	if fields == nil {
		return false, false
	}
	byField, ok := (*fields)[typeName]
	if !ok {
		return false, false
	}
	isList, known = byField[fieldName]
	return isList, known
}

// isListFieldAnyType looks a field name up across every cached type: the
// response walker usually has no type context, so a field is treated as
// list-typed when any type in the schema declares it so.
func (c *Client) isListFieldAnyType(fieldName string) (isList, known bool) {
	fields := c.listFields.Load()
	if fields == nil {
		return false, false
	}
	for _, byField := range *fields {
		if v, ok := byField[fieldName]; ok {
			known = true
			if v {
				return true, true
			}
		}
	}
	return false, known
}
