// Package tools derives MCP tool definitions from a GraphQL schema and
// routes tool calls to a GraphQL executor.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xeipuuv/gojsonschema"

	"github.com/bobmcallan/gqlbridge/internal/common"
)

// Executor runs a GraphQL operation and returns the response data. The
// remote client implements it; a locally executed schema can supply its own.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any, operationName string) (map[string]any, error)
}

// Register builds and registers an MCP tool for every spec. Returns the
// number of tools registered.
func Register(s *server.MCPServer, exec Executor, specs []*ToolSpec, logger *common.Logger) int {
	for _, spec := range specs {
		s.AddTool(BuildTool(spec), Handler(exec, spec, logger))
		logger.Debug().Str("tool", spec.Name).Bool("mutation", spec.IsMutation).Msg("registered tool")
	}
	return len(specs)
}

// BuildTool converts a ToolSpec into an mcp.Tool with the appropriate
// input schema.
func BuildTool(spec *ToolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, a := range spec.Args {
		opts = append(opts, argumentOption(a))
	}
	return mcp.NewTool(spec.Name, opts...)
}

// argumentOption maps an ArgumentSpec to the appropriate mcp-go tool option.
func argumentOption(a *ArgumentSpec) mcp.ToolOption {
	var props []mcp.PropertyOption
	if a.Description != "" {
		props = append(props, mcp.Description(a.Description))
	}
	if a.Required {
		props = append(props, mcp.Required())
	}

	switch a.Type.Kind {
	case DescEnum:
		props = append(props, mcp.Enum(a.Type.EnumValues...))
		if s, ok := a.Default.(string); ok && a.HasDefault {
			props = append(props, mcp.DefaultString(s))
		}
		return mcp.WithString(a.Name, props...)

	case DescList:
		props = append(props, mcp.Items(a.Type.Elem.JSONSchema()))
		return mcp.WithArray(a.Name, props...)

	case DescInputObject:
		fragment := a.Type.JSONSchema()
		if p, ok := fragment["properties"].(map[string]any); ok {
			props = append(props, mcp.Properties(p))
		}
		return mcp.WithObject(a.Name, props...)

	default:
		switch a.Type.Scalar {
		case ScalarInteger, ScalarNumber:
			if f, ok := toFloat(a.Default); ok && a.HasDefault {
				props = append(props, mcp.DefaultNumber(f))
			}
			return mcp.WithNumber(a.Name, props...)
		case ScalarBoolean:
			if b, ok := a.Default.(bool); ok && a.HasDefault {
				props = append(props, mcp.DefaultBool(b))
			}
			return mcp.WithBoolean(a.Name, props...)
		default:
			// string, ID, and opaque custom scalars
			if s, ok := a.Default.(string); ok && a.HasDefault {
				props = append(props, mcp.DefaultString(s))
			}
			return mcp.WithString(a.Name, props...)
		}
	}
}

// InputSchemaJSON renders a tool's full input schema as a JSON Schema
// document, used to validate incoming arguments before invocation.
func InputSchemaJSON(spec *ToolSpec) map[string]any {
	props := make(map[string]any, len(spec.Args))
	var required []any
	for _, a := range spec.Args {
		fragment := a.Type.JSONSchema()
		if a.Description != "" {
			fragment["description"] = a.Description
		}
		if a.HasDefault {
			fragment["default"] = a.Default
		}
		props[a.Name] = fragment
		if a.Required {
			required = append(required, a.Name)
		}
	}
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Handler creates the generic invocation handler for one tool: validate the
// arguments against the synthesized input schema, normalize them into query
// variables, execute, and return the result extracted along the tool's field
// path. Execution failures become MCP error results carrying the underlying
// message.
func Handler(exec Executor, spec *ToolSpec, logger *common.Logger) server.ToolHandlerFunc {
	// Enum membership is not validated here; normalization matches symbols
	// case-insensitively and reports non-members itself.
	inputSchema := stripEnumConstraints(InputSchemaJSON(spec))

	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := r.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		validation, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(inputSchema),
			gojsonschema.NewGoLoader(args),
		)
		if err != nil {
			return errorResult(fmt.Sprintf("argument validation failed: %v", err)), nil
		}
		if !validation.Valid() {
			msgs := make([]string, 0, len(validation.Errors()))
			for _, e := range validation.Errors() {
				msgs = append(msgs, e.String())
			}
			return errorResult("invalid arguments: " + strings.Join(msgs, "; ")), nil
		}

		variables := make(map[string]any, len(spec.Args))
		for _, a := range spec.Args {
			raw, ok := args[a.Name]
			switch {
			case ok:
				normalized, err := NormalizeValue(a.Type, raw)
				if err != nil {
					return errorResult(fmt.Sprintf("argument %s: %v", a.Name, err)), nil
				}
				variables[a.VarName] = normalized
			case a.HasDefault:
				variables[a.VarName] = a.Default
			case a.Required:
				return errorResult(fmt.Sprintf("argument %s is required", a.Name)), nil
			default:
				// The operation text binds every declared argument, so an
				// omitted optional is sent as an explicit null rather than
				// left out of the variable map.
				variables[a.VarName] = nil
			}
		}

		logger.Debug().Str("tool", spec.Name).Msg("executing tool")

		data, err := exec.Execute(ctx, spec.Operation, variables, spec.Name)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		out, err := json.Marshal(extractPath(data, spec.FieldPath))
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(out))}}, nil
	}
}

// stripEnumConstraints deep-copies a JSON Schema fragment with the "enum"
// keyword removed, recursing only through the schema positions (properties
// and items). A property that happens to be named "enum", or an "enum" key
// inside a default value, is data rather than a keyword and survives.
func stripEnumConstraints(fragment map[string]any) map[string]any {
	out := make(map[string]any, len(fragment))
	for k, v := range fragment {
		switch k {
		case "enum":
			continue
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			copied := make(map[string]any, len(props))
			for name, sub := range props {
				if subSchema, ok := sub.(map[string]any); ok {
					copied[name] = stripEnumConstraints(subSchema)
				} else {
					copied[name] = sub
				}
			}
			out[k] = copied
		case "items":
			if subSchema, ok := v.(map[string]any); ok {
				out[k] = stripEnumConstraints(subSchema)
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}

// extractPath digs the tool's payload out of the response data along the
// field path. A missing step yields null rather than an error: the server
// legitimately returns null for nullable chains.
func extractPath(data map[string]any, path []string) any {
	var current any = data
	for _, name := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[name]
	}
	return current
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(message)},
		IsError: true,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
