// Package schema holds a portable representation of a GraphQL type system,
// built either from an SDL document or from a standard introspection response.
// The tool deriver and the remote client both read this model and never
// mutate it after load.
package schema

import "strings"

// Type kinds, matching the introspection __TypeKind enum.
const (
	KindScalar      = "SCALAR"
	KindObject      = "OBJECT"
	KindInterface   = "INTERFACE"
	KindUnion       = "UNION"
	KindEnum        = "ENUM"
	KindInputObject = "INPUT_OBJECT"
	KindList        = "LIST"
	KindNonNull     = "NON_NULL"
)

// Schema is the full type system plus its root operation type names.
type Schema struct {
	QueryType    string
	MutationType string
	Types        map[string]*Type
}

// Query returns the query root type, or nil if the schema has none.
func (s *Schema) Query() *Type {
	if s.QueryType == "" {
		return nil
	}
	return s.Types[s.QueryType]
}

// Mutation returns the mutation root type, or nil if the schema has none.
func (s *Schema) Mutation() *Type {
	if s.MutationType == "" {
		return nil
	}
	return s.Types[s.MutationType]
}

// Type looks up a named type, or nil.
func (s *Schema) Type(name string) *Type {
	return s.Types[name]
}

// Type is one named type definition.
type Type struct {
	Name        string
	Kind        string
	Description string
	Fields      []*Field      // OBJECT and INTERFACE
	InputFields []*InputValue // INPUT_OBJECT
	EnumValues  []string      // ENUM
}

// Field returns the field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one output field on an object or interface type.
type Field struct {
	Name        string
	Description string
	Args        []*InputValue
	Type        *TypeRef
}

// InputValue is a field argument or an input object field.
type InputValue struct {
	Name        string
	Description string
	Type        *TypeRef
	Default     any
	HasDefault  bool
	Hidden      bool
}

// TypeRef is a reference to a type: either a named type (Name set) or a
// LIST / NON_NULL wrapper around OfType.
type TypeRef struct {
	Kind   string
	Name   string
	OfType *TypeRef
}

// Unwrap strips a single NON_NULL wrapper, if present.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == KindNonNull {
		return t.OfType
	}
	return t
}

// Named returns the innermost named type reference.
func (t *TypeRef) Named() *TypeRef {
	for t.OfType != nil {
		t = t.OfType
	}
	return t
}

// IsNonNull reports whether the outermost wrapper is NON_NULL.
func (t *TypeRef) IsNonNull() bool {
	return t.Kind == KindNonNull
}

// IsList reports whether the reference is a list, counting a list wrapped
// in NON_NULL.
func (t *TypeRef) IsList() bool {
	if t.Kind == KindList {
		return true
	}
	return t.Kind == KindNonNull && t.OfType != nil && t.OfType.Kind == KindList
}

// String renders the reference in GraphQL type syntax, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *TypeRef) write(b *strings.Builder) {
	switch t.Kind {
	case KindNonNull:
		t.OfType.write(b)
		b.WriteByte('!')
	case KindList:
		b.WriteByte('[')
		t.OfType.write(b)
		b.WriteByte(']')
	default:
		b.WriteString(t.Name)
	}
}
