package tools

import (
	"fmt"

	"github.com/bobmcallan/gqlbridge/internal/schema"
)

// Descriptor kinds. The set of GraphQL input kinds is closed, so mapping is
// a plain switch rather than reflection.
const (
	DescScalar      = "scalar"
	DescEnum        = "enum"
	DescList        = "list"
	DescInputObject = "input_object"
)

// Portable primitive names used by scalar descriptors. They double as
// JSON Schema type names, except "any" which renders as an unconstrained
// schema.
const (
	ScalarString  = "string"
	ScalarInteger = "integer"
	ScalarNumber  = "number"
	ScalarBoolean = "boolean"
	ScalarAny     = "any"
)

// scalarTable maps GraphQL scalar names to portable primitives. Custom
// scalars not listed fall back to ScalarAny.
var scalarTable = map[string]string{
	"String":  ScalarString,
	"ID":      ScalarString,
	"Int":     ScalarInteger,
	"Float":   ScalarNumber,
	"Boolean": ScalarBoolean,
}

// TypeDescriptor is the portable description of a tool parameter type.
type TypeDescriptor struct {
	Kind       string
	Name       string          // GraphQL type name (scalar, enum, input object)
	Scalar     string          // portable primitive, Kind == DescScalar
	Elem       *TypeDescriptor // Kind == DescList
	Fields     []*ArgumentSpec // Kind == DescInputObject
	EnumValues []string        // Kind == DescEnum
}

// ArgumentSpec describes one tool argument or one synthesized input object
// field. Name is the exposed snake_case name; GraphQLName is what goes on
// the wire.
type ArgumentSpec struct {
	Name        string
	GraphQLName string
	Description string
	Type        *TypeDescriptor
	TypeRef     *schema.TypeRef
	Required    bool
	Default     any
	HasDefault  bool

	// Tool-level fields, unused on input object members.
	VarName string // query variable the argument binds to
	Depth   int    // owning field's position in the tool's field path
}

// MappingError reports a field or type the mapper could not translate.
// Derivation skips the field and moves on.
type MappingError struct {
	Subject string
	Reason  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map %s: %s", e.Subject, e.Reason)
}

// Mapper translates GraphQL type references into TypeDescriptors. Input
// object synthesis is memoized by GraphQL type name so every reference to
// the same input type shares one structure.
type Mapper struct {
	schema *schema.Schema
	inputs map[string]*TypeDescriptor
}

// NewMapper creates a Mapper over the given schema.
func NewMapper(s *schema.Schema) *Mapper {
	return &Mapper{schema: s, inputs: make(map[string]*TypeDescriptor)}
}

// Map converts a type reference into a descriptor. The returned bool is the
// required flag for the enclosing argument: a NON_NULL wrapper sets it and
// is otherwise absorbed rather than becoming a node of its own.
func (m *Mapper) Map(ref *schema.TypeRef) (*TypeDescriptor, bool, error) {
	if ref == nil {
		return nil, false, &MappingError{Subject: "type reference", Reason: "missing"}
	}
	required := ref.IsNonNull()
	inner := ref.Unwrap()

	switch inner.Kind {
	case schema.KindList:
		elem, _, err := m.Map(inner.OfType)
		if err != nil {
			return nil, false, err
		}
		return &TypeDescriptor{Kind: DescList, Elem: elem}, required, nil

	case schema.KindScalar:
		portable, ok := scalarTable[inner.Name]
		if !ok {
			portable = ScalarAny
		}
		return &TypeDescriptor{Kind: DescScalar, Name: inner.Name, Scalar: portable}, required, nil

	case schema.KindEnum:
		t := m.schema.Type(inner.Name)
		if t == nil {
			return nil, false, &MappingError{Subject: inner.Name, Reason: "enum type not found in schema"}
		}
		return &TypeDescriptor{Kind: DescEnum, Name: inner.Name, EnumValues: t.EnumValues}, required, nil

	case schema.KindInputObject:
		desc, err := m.mapInputObject(inner.Name)
		if err != nil {
			return nil, false, err
		}
		return desc, required, nil

	default:
		return nil, false, &MappingError{
			Subject: inner.Name,
			Reason:  fmt.Sprintf("kind %s is not usable as an input type", inner.Kind),
		}
	}
}

// mapInputObject synthesizes the structured descriptor for an input object
// type. The descriptor is registered before its fields are mapped so
// self-referential input types terminate.
func (m *Mapper) mapInputObject(name string) (*TypeDescriptor, error) {
	if cached, ok := m.inputs[name]; ok {
		return cached, nil
	}
	t := m.schema.Type(name)
	if t == nil || t.Kind != schema.KindInputObject {
		return nil, &MappingError{Subject: name, Reason: "input object type not found in schema"}
	}

	desc := &TypeDescriptor{Kind: DescInputObject, Name: name}
	m.inputs[name] = desc

	for _, f := range t.InputFields {
		if f.Hidden {
			continue
		}
		fieldDesc, nonNull, err := m.Map(f.Type)
		if err != nil {
			return nil, err
		}
		desc.Fields = append(desc.Fields, &ArgumentSpec{
			Name:        ToSnakeCase(f.Name),
			GraphQLName: f.Name,
			Description: f.Description,
			Type:        fieldDesc,
			TypeRef:     f.Type,
			Required:    nonNull && !f.HasDefault,
			Default:     f.Default,
			HasDefault:  f.HasDefault,
		})
	}

	return desc, nil
}

// JSONSchema renders the descriptor as a JSON Schema fragment for the MCP
// input schema.
func (d *TypeDescriptor) JSONSchema() map[string]any {
	switch d.Kind {
	case DescScalar:
		if d.Scalar == ScalarAny {
			return map[string]any{}
		}
		return map[string]any{"type": d.Scalar}
	case DescEnum:
		return map[string]any{"type": "string", "enum": toAnySlice(d.EnumValues)}
	case DescList:
		return map[string]any{"type": "array", "items": d.Elem.JSONSchema()}
	case DescInputObject:
		props := make(map[string]any, len(d.Fields))
		var required []any
		for _, f := range d.Fields {
			fragment := f.Type.JSONSchema()
			if f.Description != "" {
				fragment["description"] = f.Description
			}
			if f.HasDefault {
				fragment["default"] = f.Default
			}
			props[f.Name] = fragment
			if f.Required {
				required = append(required, f.Name)
			}
		}
		out := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			out["required"] = required
		}
		return out
	default:
		return map[string]any{}
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
