package remote

import (
	"fmt"
	"strings"
)

// TransportError is a non-200 response or a network-level failure. Terminal
// for the call unless it doubles as an auth error with a refresh path.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graphql request failed: %v", e.Err)
	}
	return fmt.Sprintf("graphql request failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError is a 401/403 response or an auth-flavored GraphQL error for
// which no (further) refresh was possible.
type AuthError struct {
	StatusCode int
	Messages   []string
}

func (e *AuthError) Error() string {
	if len(e.Messages) > 0 {
		return "authentication failed: " + strings.Join(e.Messages, "; ")
	}
	return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
}

// GraphQLError is a top-level errors array returned by the remote server.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql errors: " + strings.Join(e.Messages, "; ")
}

// IntrospectionError wraps a failed introspection attempt. The list-field
// cache falls back to heuristics after one of these.
type IntrospectionError struct {
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("schema introspection failed: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// authKeywords flag a GraphQL error list as authentication-related.
var authKeywords = []string{"unauthorized", "authentication", "forbidden"}

func isAuthFlavored(messages []string) bool {
	for _, m := range messages {
		lower := strings.ToLower(m)
		for _, kw := range authKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
