package tools

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a camelCase GraphQL name to the snake_case name
// exposed on a tool. Every uppercase letter gets its own underscore, so the
// conversion never collapses adjacent capitals and stays invertible for the
// camelCase names schemas actually use ("createUser" -> "create_user",
// "userId" -> "user_id"). Applying it to an already-converted name is a
// no-op.
func ToSnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && name[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// joinPathName builds a tool name from the field names along a path.
func joinPathName(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = ToSnakeCase(f)
	}
	return strings.Join(parts, "_")
}
