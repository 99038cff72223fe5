package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func mustBuildSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		t.Fatalf("schema error: %v", err)
	}
	return sch
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

// errorSummary is the comparable part of a response error.
type errorSummary struct {
	Message string
	Path    string
}

func summarize(errs []*Error) []errorSummary {
	var out []errorSummary
	for _, e := range errs {
		out = append(out, errorSummary{Message: e.Message, Path: e.Path.String()})
	}
	return out
}

// run executes query against sch and returns the JSON encoding of the data.
func run(t *testing.T, sch *schema.Schema, query string, root any, opts ...Option) (string, []*Error) {
	t.Helper()
	return runWithVariables(t, sch, query, nil, root, opts...)
}

func runWithVariables(t *testing.T, sch *schema.Schema, query string, vars map[string]any, root any, opts ...Option) (string, []*Error) {
	t.Helper()
	doc := mustParseQuery(t, query)
	res := NewExecutor(sch, opts...).ExecuteRequest(context.Background(), doc, "", vars, root)
	b, err := json.Marshal(res.Data)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	return string(b), res.Errors
}

func assertData(t *testing.T, want, got string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}
