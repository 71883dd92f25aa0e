package tools

import (
	"strings"
	"testing"

	"github.com/bobmcallan/gqlbridge/internal/schema"
)

// --- Helpers ---

const testSDL = `
type Query {
  user(id: ID!): User
  users(limit: Int = 10, status: Status): [User!]!
  ping: String
}

type Mutation {
  createUser(input: CreateUserInput!): User
  user(id: ID!): User
}

type User {
  id: ID!
  name: String
  tags: [String!]
  posts(limit: Int, trace: Boolean @hidden): [Post!]!
  friend: User
  profile: Profile
}

type Post {
  title: String
  author: User
}

type Profile {
  bio: String
}

input CreateUserInput {
  name: String!
  age: Int = 21
  status: Status
  note: String @hidden
}

enum Status {
  ACTIVE
  INACTIVE
}
`

func loadTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.LoadSDL("test.graphql", testSDL)
	if err != nil {
		t.Fatalf("Failed to load test SDL: %v", err)
	}
	return s
}

func deriveTestTools(t *testing.T, opts DeriveOptions) map[string]*ToolSpec {
	t.Helper()
	specs := Derive(loadTestSchema(t), opts)
	byName := make(map[string]*ToolSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}
	return byName
}

// --- Derivation ---

func TestDerive_TopLevelTools(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	for _, name := range []string{"user", "users", "ping"} {
		if byName[name] == nil {
			t.Errorf("Expected tool %q to be derived", name)
		}
	}
	if byName["create_user"] != nil {
		t.Error("Mutations should not be derived by default")
	}
}

func TestDerive_Mutations(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{ExposeMutations: true})

	spec := byName["create_user"]
	if spec == nil {
		t.Fatal("Expected create_user tool with ExposeMutations")
	}
	if !spec.IsMutation {
		t.Error("create_user should be flagged as a mutation")
	}
	if !strings.HasPrefix(spec.Operation, "mutation create_user") {
		t.Errorf("Expected mutation operation, got %q", spec.Operation)
	}
}

func TestDerive_MutationNameCollisionLosesToQuery(t *testing.T) {
	// Both Query.user and Mutation.user map to tool name "user"; the query
	// wins regardless of walk order.
	byName := deriveTestTools(t, DeriveOptions{ExposeMutations: true})

	spec := byName["user"]
	if spec == nil {
		t.Fatal("Expected user tool")
	}
	if spec.IsMutation {
		t.Error("Colliding tool name should resolve to the query, not the mutation")
	}
}

func TestDerive_NestedTool(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	spec := byName["user_posts"]
	if spec == nil {
		t.Fatal("Expected nested tool user_posts")
	}
	if len(spec.FieldPath) != 2 || spec.FieldPath[0] != "user" || spec.FieldPath[1] != "posts" {
		t.Errorf("Unexpected field path: %v", spec.FieldPath)
	}

	var names []string
	for _, a := range spec.Args {
		names = append(names, a.Name)
	}
	if len(names) != 2 || names[0] != "user_id" || names[1] != "limit" {
		t.Errorf("Expected args [user_id limit], got %v", names)
	}
	if !spec.Args[0].Required {
		t.Error("user_id should be required")
	}
	if spec.Args[1].Required {
		t.Error("limit should be optional")
	}
}

func TestDerive_HiddenArgumentsExcluded(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	spec := byName["user_posts"]
	if spec == nil {
		t.Fatal("Expected user_posts tool")
	}
	for _, a := range spec.Args {
		if a.GraphQLName == "trace" {
			t.Error("Hidden argument trace should not be exposed")
		}
	}
	if strings.Contains(spec.Operation, "trace") {
		t.Errorf("Hidden argument leaked into operation: %q", spec.Operation)
	}
}

func TestDerive_OperationText(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	spec := byName["user_posts"]
	if spec == nil {
		t.Fatal("Expected user_posts tool")
	}
	want := "query user_posts($user_id: ID!, $limit: Int) { user(id: $user_id) { posts(limit: $limit) { title __typename } } }"
	if spec.Operation != want {
		t.Errorf("Operation mismatch:\n got  %q\n want %q", spec.Operation, want)
	}
}

func TestDerive_CyclicTypeBounded(t *testing.T) {
	// User.friend is User; the walker must not descend into it, and the
	// selection must collapse it rather than recurse.
	byName := deriveTestTools(t, DeriveOptions{})

	if byName["user_friend"] != nil {
		t.Error("Walker descended into a type already on the path")
	}
	spec := byName["user"]
	if spec == nil {
		t.Fatal("Expected user tool")
	}
	if strings.Contains(spec.Operation, "friend {") {
		t.Errorf("Selection recursed into cyclic field: %q", spec.Operation)
	}
}

func TestDerive_ScalarFieldHasNoNestedTools(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	spec := byName["ping"]
	if spec == nil {
		t.Fatal("Expected ping tool")
	}
	if len(spec.Args) != 0 {
		t.Errorf("ping should have no args, got %d", len(spec.Args))
	}
	if spec.Operation != "query ping { ping }" {
		t.Errorf("Unexpected operation: %q", spec.Operation)
	}
}

func TestDerive_DefaultsCarried(t *testing.T) {
	byName := deriveTestTools(t, DeriveOptions{})

	spec := byName["users"]
	if spec == nil {
		t.Fatal("Expected users tool")
	}
	var limit *ArgumentSpec
	for _, a := range spec.Args {
		if a.Name == "limit" {
			limit = a
		}
	}
	if limit == nil {
		t.Fatal("Expected limit argument")
	}
	if !limit.HasDefault {
		t.Fatal("limit should carry its declared default")
	}
	if f, ok := limit.Default.(float64); !ok || f != 10 {
		t.Errorf("Expected default 10, got %#v", limit.Default)
	}
	if limit.Required {
		t.Error("Argument with a default must not be required")
	}
}
