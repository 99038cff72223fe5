package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

const valuesSDL = `
	type Query {
		search(filter: Filter, limit: Int = 10, ids: [ID!]): String
	}
	input Filter {
		term: String!
		required: Int!
		color: Color = RED
		nested: Filter
	}
	enum Color { RED GREEN }
`

func TestCoerceVariableValues(t *testing.T) {
	sch := mustBuildSchema(t, valuesSDL)
	doc := mustParseQuery(t, `query ($f: Filter, $n: Int = 3, $ids: [ID!]) { search(filter: $f, limit: $n, ids: $ids) }`)
	r := NewValuesResolver(sch)

	got, err := r.CoerceVariableValues(doc.Operations[0], map[string]any{
		"f":   map[string]any{"term": "x", "required": 1.0},
		"ids": 7,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"f":   map[string]any{"term": "x", "required": 1, "color": "RED"},
		"n":   3,
		"ids": []any{"7"},
	}, got)
}

func TestCoerceVariableValuesErrors(t *testing.T) {
	sch := mustBuildSchema(t, valuesSDL)
	r := NewValuesResolver(sch)

	for _, tc := range []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{
			name:  "missing required",
			query: `query ($n: Int!) { search(limit: $n) }`,
			want:  "variable $n of required type Int! was not provided",
		},
		{
			name:  "null for non-null",
			query: `query ($n: Int!) { search(limit: $n) }`,
			vars:  map[string]any{"n": nil},
			want:  "variable $n of type Int! cannot be null",
		},
		{
			name:  "string for int",
			query: `query ($n: Int) { search(limit: $n) }`,
			vars:  map[string]any{"n": "1"},
			want:  "cannot coerce",
		},
		{
			name:  "missing input field",
			query: `query ($f: Filter) { search(filter: $f) }`,
			vars:  map[string]any{"f": map[string]any{"term": "x"}},
			want:  "required field 'required'",
		},
		{
			name:  "unknown input field",
			query: `query ($f: Filter) { search(filter: $f) }`,
			vars:  map[string]any{"f": map[string]any{"term": "x", "required": 1, "extra": true}},
			want:  "field 'extra' is not defined by type Filter",
		},
		{
			name:  "unknown enum value",
			query: `query ($f: Filter) { search(filter: $f) }`,
			vars:  map[string]any{"f": map[string]any{"term": "x", "required": 1, "color": "BLUE"}},
			want:  `value "BLUE" does not exist in enum Color`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParseQuery(t, tc.query)
			_, err := r.CoerceVariableValues(doc.Operations[0], tc.vars)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestCoerceArguments(t *testing.T) {
	sch := mustBuildSchema(t, valuesSDL)
	r := NewValuesResolver(sch)
	fieldDef := sch.GetQueryType().GetField("search")

	doc := mustParseQuery(t, `{ search(filter: {term: "go", required: 2, color: GREEN}, ids: ["a", 1]) }`)
	got, err := r.CoerceArguments(fieldDef, doc.Operations[0].SelectionSet[0].(*language.Field), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"filter": map[string]any{"term": "go", "required": 2, "color": "GREEN"},
		"limit":  10,
		"ids":    []any{"a", "1"},
	}, got)
}

func TestCoerceEnumInternalValue(t *testing.T) {
	sch := mustBuildSchema(t, valuesSDL)
	sch.GetType("Color").GetEnumValue("GREEN").SetValue(2)
	r := NewValuesResolver(sch)

	v, err := r.coerceValue("GREEN", schema.NamedType("Color"))
	require.NoError(t, err)
	require.Equal(t, 2, v)
}
