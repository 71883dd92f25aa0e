package schema

import (
	"fmt"
	"strconv"
	"strings"

	gqlparser "github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// hiddenDirective marks an argument or input field that stays a valid part
// of the GraphQL schema but is excluded from every derived tool's input
// contract.
const hiddenDirective = "hidden"

// hiddenPrelude declares @hidden so SDL documents can use it without
// declaring it themselves.
const hiddenPrelude = `directive @hidden on ARGUMENT_DEFINITION | INPUT_FIELD_DEFINITION
`

// LoadSDL parses and validates an SDL document and converts it to the
// portable model. Parsing and validation are gqlparser's job; this loader
// only walks the resulting AST.
func LoadSDL(name, input string) (*Schema, error) {
	sources := []*ast.Source{{Name: name, Input: input}}
	if !strings.Contains(input, "directive @"+hiddenDirective) {
		sources = append([]*ast.Source{{Name: "gqlbridge-prelude", Input: hiddenPrelude}}, sources...)
	}

	astSchema, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load SDL %s: %w", name, err)
	}

	s := &Schema{Types: make(map[string]*Type, len(astSchema.Types))}
	if astSchema.Query != nil {
		s.QueryType = astSchema.Query.Name
	}
	if astSchema.Mutation != nil {
		s.MutationType = astSchema.Mutation.Name
	}

	for typeName, def := range astSchema.Types {
		if strings.HasPrefix(typeName, "__") {
			continue
		}
		s.Types[typeName] = convertDefinition(astSchema, def)
	}

	return s, nil
}

func convertDefinition(astSchema *ast.Schema, def *ast.Definition) *Type {
	t := &Type{
		Name:        def.Name,
		Kind:        string(def.Kind),
		Description: def.Description,
	}

	switch def.Kind {
	case ast.Object, ast.Interface:
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			field := &Field{
				Name:        f.Name,
				Description: f.Description,
				Type:        convertTypeRef(astSchema, f.Type),
			}
			for _, a := range f.Arguments {
				field.Args = append(field.Args, convertArgument(astSchema, a))
			}
			t.Fields = append(t.Fields, field)
		}
	case ast.InputObject:
		for _, f := range def.Fields {
			iv := &InputValue{
				Name:        f.Name,
				Description: f.Description,
				Type:        convertTypeRef(astSchema, f.Type),
				Hidden:      f.Directives.ForName(hiddenDirective) != nil,
			}
			if f.DefaultValue != nil {
				iv.Default = valueToGo(f.DefaultValue)
				iv.HasDefault = true
			}
			t.InputFields = append(t.InputFields, iv)
		}
	case ast.Enum:
		for _, v := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, v.Name)
		}
	}

	return t
}

func convertArgument(astSchema *ast.Schema, a *ast.ArgumentDefinition) *InputValue {
	iv := &InputValue{
		Name:        a.Name,
		Description: a.Description,
		Type:        convertTypeRef(astSchema, a.Type),
		Hidden:      a.Directives.ForName(hiddenDirective) != nil,
	}
	if a.DefaultValue != nil {
		iv.Default = valueToGo(a.DefaultValue)
		iv.HasDefault = true
	}
	return iv
}

// convertTypeRef maps an ast.Type (named type + NonNull flag, or Elem for
// lists) onto the introspection-shaped TypeRef chain.
func convertTypeRef(astSchema *ast.Schema, t *ast.Type) *TypeRef {
	var inner *TypeRef
	if t.NamedType != "" {
		inner = &TypeRef{Kind: namedKind(astSchema, t.NamedType), Name: t.NamedType}
	} else {
		inner = &TypeRef{Kind: KindList, OfType: convertTypeRef(astSchema, t.Elem)}
	}
	if t.NonNull {
		return &TypeRef{Kind: KindNonNull, OfType: inner}
	}
	return inner
}

func namedKind(astSchema *ast.Schema, name string) string {
	if def, ok := astSchema.Types[name]; ok {
		return string(def.Kind)
	}
	return KindScalar
}

// valueToGo converts an AST literal to its Go/JSON counterpart. Numbers come
// back as float64 so defaults compare equal to JSON-decoded caller values.
func valueToGo(v *ast.Value) any {
	switch v.Kind {
	case ast.IntValue, ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return v.Raw
		}
		return f
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return v.Raw
	case ast.BooleanValue:
		return v.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		list := make([]any, 0, len(v.Children))
		for _, child := range v.Children {
			list = append(list, valueToGo(child.Value))
		}
		return list
	case ast.ObjectValue:
		obj := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			obj[child.Name] = valueToGo(child.Value)
		}
		return obj
	default:
		return v.Raw
	}
}
