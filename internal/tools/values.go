package tools

import (
	"fmt"
	"strings"
)

// NormalizeValue converts a caller-supplied argument value into the value
// sent to the GraphQL server: enum values are canonicalized, synthesized
// input object fields are renamed back to their GraphQL names, and declared
// defaults are filled in for omitted optional sub-fields. An explicit null
// from the caller stays null; defaults apply only when a key is absent.
func NormalizeValue(desc *TypeDescriptor, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch desc.Kind {
	case DescScalar:
		return value, nil

	case DescEnum:
		return canonicalEnumValue(desc, value)

	case DescList:
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list for %s, got %T", desc.Name, value)
		}
		out := make([]any, len(items))
		for i, item := range items {
			normalized, err := NormalizeValue(desc.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil

	case DescInputObject:
		return normalizeInputObject(desc, value)

	default:
		return value, nil
	}
}

// canonicalEnumValue matches a supplied value case-insensitively against the
// enum's symbolic names and returns the canonical symbol.
func canonicalEnumValue(desc *TypeDescriptor, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string for enum %s, got %T", desc.Name, value)
	}
	for _, candidate := range desc.EnumValues {
		if strings.EqualFold(candidate, s) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("value %q is not a member of enum %s", s, desc.Name)
}

// normalizeInputObject maps a caller structure keyed by exposed snake_case
// names onto the wire structure keyed by GraphQL field names. Omitted fields
// with declared defaults receive the default rather than null; omitted
// required fields are an error.
func normalizeInputObject(desc *TypeDescriptor, value any) (any, error) {
	supplied, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for input type %s, got %T", desc.Name, value)
	}

	known := make(map[string]bool, len(desc.Fields))
	out := make(map[string]any, len(desc.Fields))

	for _, f := range desc.Fields {
		known[f.Name] = true
		known[f.GraphQLName] = true
		raw, present := supplied[f.Name]
		if !present {
			// Accept the original GraphQL name too.
			raw, present = supplied[f.GraphQLName]
		}
		switch {
		case present:
			normalized, err := NormalizeValue(f.Type, raw)
			if err != nil {
				return nil, err
			}
			out[f.GraphQLName] = normalized
		case f.HasDefault:
			out[f.GraphQLName] = f.Default
		case f.Required:
			return nil, fmt.Errorf("input type %s is missing required field %q", desc.Name, f.Name)
		}
	}

	for key := range supplied {
		if !known[key] {
			return nil, fmt.Errorf("input type %s has no field %q", desc.Name, key)
		}
	}

	return out, nil
}
