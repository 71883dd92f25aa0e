package tools

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/gqlbridge/internal/common"
	"github.com/bobmcallan/gqlbridge/internal/schema"
)

// Derivation defaults. Remote schemas get the shallow selection ceiling; a
// locally controlled schema can afford DefaultLocalSelectionDepth.
const (
	DefaultLocalSelectionDepth  = 5
	DefaultRemoteSelectionDepth = 2
	DefaultMaxToolDepth         = 3
)

// ToolSpec is the static description of one derived tool. Built once at
// registration time and never mutated afterward.
type ToolSpec struct {
	Name        string
	Description string
	IsMutation  bool
	FieldPath   []string // GraphQL field names, schema root to leaf
	Args        []*ArgumentSpec
	ReturnType  *schema.TypeRef
	Selection   []*SelectionNode
	Operation   string // full GraphQL operation text
}

// DeriveOptions controls tool derivation.
type DeriveOptions struct {
	// ExposeMutations also derives tools from the mutation root.
	ExposeMutations bool
	// SelectionDepth is the result selection ceiling; zero means the remote
	// default.
	SelectionDepth int
	// MaxToolDepth bounds how deep nested tool paths go; zero means the
	// default.
	MaxToolDepth int
	Logger       *common.Logger
}

// Derive walks the schema's query and (optionally) mutation roots and
// produces the full flat set of tool specs. Query fields are walked first so
// a mutation colliding with a query-derived name always loses, regardless of
// declaration order. Fields that cannot be mapped are skipped with a warning.
func Derive(s *schema.Schema, opts DeriveOptions) []*ToolSpec {
	if opts.SelectionDepth <= 0 {
		opts.SelectionDepth = DefaultRemoteSelectionDepth
	}
	if opts.MaxToolDepth <= 0 {
		opts.MaxToolDepth = DefaultMaxToolDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	d := &deriver{
		schema: s,
		mapper: NewMapper(s),
		opts:   opts,
		logger: logger,
		seen:   make(map[string]bool),
	}

	if q := s.Query(); q != nil {
		for _, f := range q.Fields {
			d.deriveAndDescend([]*schema.Field{f}, false)
		}
	}
	if opts.ExposeMutations {
		if m := s.Mutation(); m != nil {
			for _, f := range m.Fields {
				d.deriveAndDescend([]*schema.Field{f}, true)
			}
		}
	}

	return d.specs
}

type deriver struct {
	schema *schema.Schema
	mapper *Mapper
	opts   DeriveOptions
	logger *common.Logger
	seen   map[string]bool
	specs  []*ToolSpec
}

// deriveAndDescend derives a tool for the current field path when it
// qualifies, then walks one level deeper into object-typed fields.
//
// Top-level fields always qualify. A nested path qualifies when its leaf
// resolves to an object type (descend guarantees that) and at least one
// non-hidden argument exists anywhere along the path.
func (d *deriver) deriveAndDescend(path []*schema.Field, isMutation bool) {
	if len(path) == 1 || pathHasArguments(path) {
		d.derive(path, isMutation)
	}
	d.descend(path, isMutation)
}

func (d *deriver) derive(path []*schema.Field, isMutation bool) {
	spec, err := d.buildSpec(path, isMutation)
	if err != nil {
		d.logger.Warn().
			Str("path", strings.Join(fieldNames(path), ".")).
			Str("error", err.Error()).
			Msg("skipping unmappable field")
		return
	}
	if d.seen[spec.Name] {
		d.logger.Warn().
			Str("tool", spec.Name).
			Bool("mutation", isMutation).
			Msg("dropping tool with duplicate name")
		return
	}
	d.seen[spec.Name] = true
	d.specs = append(d.specs, spec)
}

// descend walks into the leaf's object-typed fields. Scalar, enum and
// list-of-scalar fields are selection material, not tool material, so the
// walk never enters them. A field whose type already appears on the path is
// skipped to keep circular schemas bounded, as is anything past MaxToolDepth.
func (d *deriver) descend(path []*schema.Field, isMutation bool) {
	if len(path) >= d.opts.MaxToolDepth {
		return
	}
	leaf := path[len(path)-1]
	leafType := d.schema.Type(leaf.Type.Named().Name)
	if leafType == nil || (leafType.Kind != schema.KindObject && leafType.Kind != schema.KindInterface) {
		return
	}

	for _, f := range leafType.Fields {
		childType := d.schema.Type(f.Type.Named().Name)
		if childType == nil {
			continue
		}
		if childType.Kind != schema.KindObject && childType.Kind != schema.KindInterface {
			continue
		}
		if typeOnPath(d.schema, path, childType.Name) {
			continue
		}
		child := make([]*schema.Field, len(path)+1)
		copy(child, path)
		child[len(path)] = f
		d.deriveAndDescend(child, isMutation)
	}
}

func (d *deriver) buildSpec(path []*schema.Field, isMutation bool) (*ToolSpec, error) {
	names := fieldNames(path)
	leaf := path[len(path)-1]

	args, err := d.buildArgs(path)
	if err != nil {
		return nil, err
	}

	spec := &ToolSpec{
		Name:        joinPathName(names),
		Description: leaf.Description,
		IsMutation:  isMutation,
		FieldPath:   names,
		Args:        args,
		ReturnType:  leaf.Type,
		Selection:   BuildSelection(d.schema, leaf.Type, d.opts.SelectionDepth, pathTypeNames(path)...),
	}
	if spec.Description == "" {
		kind := "Query"
		if isMutation {
			kind = "Mutation"
		}
		spec.Description = fmt.Sprintf("%s %s on the upstream GraphQL API", kind, strings.Join(names, "."))
	}
	spec.Operation = renderOperation(spec, path)

	return spec, nil
}

// buildArgs flattens the arguments of every field on the path. Ancestor
// arguments are renamed with their owning field's snake_case name as prefix;
// leaf arguments keep their own names unless that collides, in which case
// the leaf argument gets qualified the same way. Hidden arguments never
// appear.
func (d *deriver) buildArgs(path []*schema.Field) ([]*ArgumentSpec, error) {
	var out []*ArgumentSpec
	used := make(map[string]bool)

	for depth, field := range path {
		prefix := ""
		if depth < len(path)-1 {
			prefix = ToSnakeCase(field.Name) + "_"
		}
		for _, a := range field.Args {
			if a.Hidden {
				continue
			}
			exposed := prefix + ToSnakeCase(a.Name)
			if used[exposed] {
				exposed = ToSnakeCase(field.Name) + "_" + ToSnakeCase(a.Name)
			}
			for n := 2; used[exposed]; n++ {
				exposed = fmt.Sprintf("%s%s_%d", prefix, ToSnakeCase(a.Name), n)
			}
			used[exposed] = true

			desc, nonNull, err := d.mapper.Map(a.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, &ArgumentSpec{
				Name:        exposed,
				GraphQLName: a.Name,
				Description: a.Description,
				Type:        desc,
				TypeRef:     a.Type,
				Required:    nonNull && !a.HasDefault,
				Default:     a.Default,
				HasDefault:  a.HasDefault,
				VarName:     exposed,
				Depth:       depth,
			})
		}
	}

	return out, nil
}

// renderOperation writes the full GraphQL operation for a tool: variable
// declarations in GraphQL type syntax, the nested field chain with argument
// bindings, and the synthesized selection for object results.
func renderOperation(spec *ToolSpec, path []*schema.Field) string {
	var b strings.Builder
	if spec.IsMutation {
		b.WriteString("mutation ")
	} else {
		b.WriteString("query ")
	}
	b.WriteString(spec.Name)

	if len(spec.Args) > 0 {
		decls := make([]string, len(spec.Args))
		for i, a := range spec.Args {
			decls[i] = "$" + a.VarName + ": " + a.TypeRef.String()
		}
		b.WriteString("(" + strings.Join(decls, ", ") + ")")
	}

	for depth, field := range path {
		b.WriteString(" { ")
		b.WriteString(field.Name)
		var bindings []string
		for _, a := range spec.Args {
			if a.Depth == depth {
				bindings = append(bindings, a.GraphQLName+": $"+a.VarName)
			}
		}
		if len(bindings) > 0 {
			b.WriteString("(" + strings.Join(bindings, ", ") + ")")
		}
	}

	if len(spec.Selection) > 0 {
		b.WriteByte(' ')
		b.WriteString(RenderSelection(spec.Selection))
	}
	b.WriteString(strings.Repeat(" }", len(path)))

	return b.String()
}

// pathTypeNames resolves the return type name of every field on the path.
// The rendered operation keeps each of them open above the leaf selection,
// so the selection must not re-expand any of them.
func pathTypeNames(path []*schema.Field) []string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Type.Named().Name
	}
	return names
}

func fieldNames(path []*schema.Field) []string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Name
	}
	return names
}

// pathHasArguments reports whether any field along the path carries a
// non-hidden argument.
func pathHasArguments(path []*schema.Field) bool {
	for _, f := range path {
		for _, a := range f.Args {
			if !a.Hidden {
				return true
			}
		}
	}
	return false
}

// typeOnPath reports whether a type name is already the resolved return type
// of any field on the path.
func typeOnPath(s *schema.Schema, path []*schema.Field, typeName string) bool {
	for _, f := range path {
		if f.Type.Named().Name == typeName {
			return true
		}
	}
	return false
}
