package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IntrospectionQuery is the standard introspection document used to fetch a
// remote schema. TypeRef nesting is unrolled seven levels, enough for any
// practical wrapper chain (e.g. [[Int!]!]!).
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    types {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        description
        args {
          name
          description
          type { ...TypeRef }
          defaultValue
        }
        type { ...TypeRef }
      }
      inputFields {
        name
        description
        type { ...TypeRef }
        defaultValue
      }
      enumValues(includeDeprecated: true) { name }
    }
  }
}
fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType { kind name }
            }
          }
        }
      }
    }
  }
}`

// introspectionData is the "data" payload of an introspection response.
type introspectionData struct {
	Schema struct {
		QueryType    *introspectionTypeRef `json:"queryType"`
		MutationType *introspectionTypeRef `json:"mutationType"`
		Types        []introspectionType   `json:"types"`
	} `json:"__schema"`
}

type introspectionType struct {
	Kind        string                 `json:"kind"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Fields      []introspectionField   `json:"fields"`
	InputFields []introspectionInput   `json:"inputFields"`
	EnumValues  []introspectionEnumVal `json:"enumValues"`
}

type introspectionField struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Args        []introspectionInput  `json:"args"`
	Type        *introspectionTypeRef `json:"type"`
}

type introspectionInput struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Type         *introspectionTypeRef `json:"type"`
	DefaultValue *string               `json:"defaultValue"`
}

type introspectionEnumVal struct {
	Name string `json:"name"`
}

type introspectionTypeRef struct {
	Kind   string                `json:"kind"`
	Name   string                `json:"name"`
	OfType *introspectionTypeRef `json:"ofType"`
}

// ParseIntrospection converts the "data" payload of a standard introspection
// response into the portable model.
func ParseIntrospection(data []byte) (*Schema, error) {
	var parsed introspectionData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse introspection response: %w", err)
	}
	if len(parsed.Schema.Types) == 0 {
		return nil, fmt.Errorf("introspection response contains no types")
	}

	s := &Schema{Types: make(map[string]*Type, len(parsed.Schema.Types))}
	if parsed.Schema.QueryType != nil {
		s.QueryType = parsed.Schema.QueryType.Name
	}
	if parsed.Schema.MutationType != nil {
		s.MutationType = parsed.Schema.MutationType.Name
	}

	for _, it := range parsed.Schema.Types {
		if strings.HasPrefix(it.Name, "__") {
			continue
		}
		t := &Type{
			Name:        it.Name,
			Kind:        it.Kind,
			Description: it.Description,
		}
		for _, f := range it.Fields {
			field := &Field{
				Name:        f.Name,
				Description: f.Description,
				Type:        convertIntrospectionRef(f.Type),
			}
			for _, a := range f.Args {
				field.Args = append(field.Args, convertIntrospectionInput(a))
			}
			t.Fields = append(t.Fields, field)
		}
		for _, in := range it.InputFields {
			t.InputFields = append(t.InputFields, convertIntrospectionInput(in))
		}
		for _, ev := range it.EnumValues {
			t.EnumValues = append(t.EnumValues, ev.Name)
		}
		s.Types[it.Name] = t
	}

	return s, nil
}

func convertIntrospectionInput(in introspectionInput) *InputValue {
	iv := &InputValue{
		Name:        in.Name,
		Description: in.Description,
		Type:        convertIntrospectionRef(in.Type),
	}
	if in.DefaultValue != nil {
		iv.Default = decodeDefaultLiteral(*in.DefaultValue)
		iv.HasDefault = true
	}
	return iv
}

func convertIntrospectionRef(ref *introspectionTypeRef) *TypeRef {
	if ref == nil {
		return nil
	}
	return &TypeRef{
		Kind:   ref.Kind,
		Name:   ref.Name,
		OfType: convertIntrospectionRef(ref.OfType),
	}
}

// decodeDefaultLiteral interprets an introspection defaultValue, which is a
// GraphQL literal rendered as a string ("\"abc\"", "3", "[1, 2]", "ACTIVE").
// Scalar and list literals are JSON-compatible; anything that fails to decode
// is kept verbatim, which covers enum symbols.
func decodeDefaultLiteral(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
