package remote

import (
	"regexp"
	"strings"
)

// unsetType is the sentinel for "argument declared but not supplied".
// CleanVariables converts it to an explicit null rather than dropping it,
// so the omission stays visible to the remote server's own validation.
type unsetType struct{}

func (unsetType) String() string { return "<unset>" }

// Unset marks an argument value as not supplied by the caller.
var Unset = unsetType{}

// CleanVariables replaces every Unset sentinel with an explicit null at the
// same structural position, recursing through nested maps and lists. Returns
// nil for an empty or nil map.
func CleanVariables(variables map[string]any) map[string]any {
	if len(variables) == 0 {
		return nil
	}
	cleaned := make(map[string]any, len(variables))
	for key, value := range variables {
		cleaned[key] = cleanValue(value)
	}
	return cleaned
}

func cleanValue(value any) any {
	switch v := value.(type) {
	case unsetType:
		return nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cleanValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cleanValue(item)
		}
		return out
	default:
		return value
	}
}

var (
	varDeclRe = regexp.MustCompile(`^\s*(?:query|mutation|subscription)\s*\w*\s*(\(([^)]*)\))`)
	varNameRe = regexp.MustCompile(`^\$(\w+)`)
)

// TrimUnusedVariables rewrites the operation's variable declaration list to
// contain only variables present in the variable map. The remote server will
// reject an operation declaring a non-null variable it never received; this
// strips such declarations before they can hurt. The rewrite is purely
// textual over the parenthetical immediately following the operation header;
// inline field arguments further into the document are never touched.
func TrimUnusedVariables(query string, variables map[string]any) string {
	match := varDeclRe.FindStringSubmatchIndex(query)
	if match == nil {
		return query
	}
	full := query[match[2]:match[3]]
	decls := query[match[4]:match[5]]

	if len(variables) == 0 {
		return strings.Replace(query, full, "", 1)
	}

	var kept []string
	for _, decl := range strings.Split(decls, ",") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name := varNameRe.FindStringSubmatch(decl)
		if name == nil {
			continue
		}
		if _, ok := variables[name[1]]; ok {
			kept = append(kept, decl)
		}
	}

	if len(kept) == 0 {
		return strings.Replace(query, full, "", 1)
	}
	return strings.Replace(query, full, "("+strings.Join(kept, ", ")+")", 1)
}
