package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/gqlbridge/internal/common"
)

// --- Helpers ---

type fakeExecutor struct {
	query     string
	variables map[string]any
	opName    string
	data      map[string]any
	err       error
}

func (f *fakeExecutor) Execute(_ context.Context, query string, variables map[string]any, operationName string) (map[string]any, error) {
	f.query = query
	f.variables = variables
	f.opName = operationName
	return f.data, f.err
}

func testToolSpec(t *testing.T, name string) *ToolSpec {
	t.Helper()
	for _, spec := range Derive(loadTestSchema(t), DeriveOptions{ExposeMutations: true}) {
		if spec.Name == name {
			return spec
		}
	}
	t.Fatalf("No derived tool named %q", name)
	return nil
}

func callTool(t *testing.T, exec Executor, spec *ToolSpec, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	handler := Handler(exec, spec, common.NewSilentLogger())

	request := mcp.CallToolRequest{}
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

// --- Handler ---

func TestHandler_Success(t *testing.T) {
	exec := &fakeExecutor{data: map[string]any{
		"user": map[string]any{"id": "42", "name": "Ann"},
	}}
	spec := testToolSpec(t, "user")

	result := callTool(t, exec, spec, map[string]any{"id": "42"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}

	if exec.opName != "user" {
		t.Errorf("Expected operation name user, got %q", exec.opName)
	}
	if exec.variables["id"] != "42" {
		t.Errorf("Expected variable id=42, got %v", exec.variables)
	}
	if !strings.HasPrefix(exec.query, "query user($id: ID!)") {
		t.Errorf("Unexpected operation sent: %q", exec.query)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Ann") {
		t.Errorf("Result should contain the extracted payload, got %q", text)
	}
	if strings.Contains(text, `"user"`) {
		t.Errorf("Payload should be extracted below the field path, got %q", text)
	}
}

func TestHandler_MissingRequiredArgument(t *testing.T) {
	exec := &fakeExecutor{}
	spec := testToolSpec(t, "user")

	result := callTool(t, exec, spec, map[string]any{})
	if !result.IsError {
		t.Fatal("Expected error result for missing required argument")
	}
	if exec.query != "" {
		t.Error("Executor must not be called on invalid arguments")
	}
}

func TestHandler_WrongArgumentType(t *testing.T) {
	exec := &fakeExecutor{}
	spec := testToolSpec(t, "user")

	result := callTool(t, exec, spec, map[string]any{"id": float64(7)})
	if !result.IsError {
		t.Fatal("Expected error result for mistyped argument")
	}
	if !strings.Contains(resultText(t, result), "invalid arguments") {
		t.Errorf("Expected validation message, got %q", resultText(t, result))
	}
}

func TestHandler_DefaultFilledForOmittedArgument(t *testing.T) {
	exec := &fakeExecutor{data: map[string]any{"users": []any{}}}
	spec := testToolSpec(t, "users")

	result := callTool(t, exec, spec, map[string]any{})
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}
	if exec.variables["limit"] != float64(10) {
		t.Errorf("Expected declared default 10, got %v", exec.variables["limit"])
	}
	v, present := exec.variables["status"]
	if !present || v != nil {
		t.Errorf("Omitted optional without default must be sent as null, got %v (present=%v)", v, present)
	}
}

func TestHandler_EnumCanonicalized(t *testing.T) {
	exec := &fakeExecutor{data: map[string]any{"users": []any{}}}
	spec := testToolSpec(t, "users")

	result := callTool(t, exec, spec, map[string]any{"status": "inactive"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}
	if exec.variables["status"] != "INACTIVE" {
		t.Errorf("Expected canonical enum symbol, got %v", exec.variables["status"])
	}
}

func TestHandler_ExecutionErrorBecomesErrorResult(t *testing.T) {
	exec := &fakeExecutor{err: context.DeadlineExceeded}
	spec := testToolSpec(t, "ping")

	result := callTool(t, exec, spec, nil)
	if !result.IsError {
		t.Fatal("Expected error result when execution fails")
	}
}

func TestHandler_MissingPathYieldsNull(t *testing.T) {
	exec := &fakeExecutor{data: map[string]any{}}
	spec := testToolSpec(t, "user")

	result := callTool(t, exec, spec, map[string]any{"id": "42"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}
	if resultText(t, result) != "null" {
		t.Errorf("Absent payload should serialize as null, got %q", resultText(t, result))
	}
}

func TestInputSchemaJSON(t *testing.T) {
	spec := testToolSpec(t, "user_posts")
	js := InputSchemaJSON(spec)

	props, ok := js["properties"].(map[string]any)
	if !ok {
		t.Fatal("Expected properties map")
	}
	if _, ok := props["user_id"]; !ok {
		t.Error("Expected prefixed ancestor argument user_id")
	}
	if _, ok := props["limit"]; !ok {
		t.Error("Expected leaf argument limit")
	}
	required, _ := js["required"].([]any)
	if len(required) != 1 || required[0] != "user_id" {
		t.Errorf("Expected required [user_id], got %v", js["required"])
	}
}

func TestStripEnumConstraints(t *testing.T) {
	fragment := map[string]any{
		"type": "object",
		"enum": []any{"A", "B"},
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "enum": []any{"ACTIVE"}},
			// A property literally named "enum" is data, not a keyword.
			"enum": map[string]any{"type": "string"},
		},
		"items": map[string]any{"type": "string", "enum": []any{"X"}},
	}

	got := stripEnumConstraints(fragment)

	if _, ok := got["enum"]; ok {
		t.Error("Top-level enum keyword should be stripped")
	}
	props := got["properties"].(map[string]any)
	if _, ok := props["enum"]; !ok {
		t.Error("Property named enum should survive")
	}
	status := props["status"].(map[string]any)
	if _, ok := status["enum"]; ok {
		t.Error("Nested enum keyword should be stripped")
	}
	items := got["items"].(map[string]any)
	if _, ok := items["enum"]; ok {
		t.Error("Items enum keyword should be stripped")
	}
	if status["type"] != "string" || items["type"] != "string" {
		t.Error("Non-enum keys should be preserved")
	}
}

func TestBuildTool(t *testing.T) {
	spec := testToolSpec(t, "users")
	tool := BuildTool(spec)

	if tool.Name != "users" {
		t.Errorf("Tool name = %q", tool.Name)
	}
	if tool.Description == "" {
		t.Error("Tool should carry a description")
	}
	if _, ok := tool.InputSchema.Properties["limit"]; !ok {
		t.Error("Input schema should declare limit")
	}
}
