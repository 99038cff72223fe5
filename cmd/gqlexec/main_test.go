package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSDL = `
type Query {
  hello: String
  user(id: ID!): User
  users: [User!]!
}

type User {
  id: ID!
  name: String
  age: Int
}
`

const testRoot = `{
  "hello": "world",
  "user": {"id": "1", "name": "Ada", "age": 36},
  "users": [{"id": "1", "name": "Ada"}, {"id": "2", "name": "Grace"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCmd(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCmd("help", "serve")
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")

	out, _, err = runCmd("help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS")

	_, _, err = runCmd("help", "nope")
	require.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCmd("frobnicate")
	require.EqualError(t, err, `unknown command "frobnicate"`)
	require.Contains(t, stderr, "USAGE")

	_, _, err = runCmd()
	require.EqualError(t, err, "missing command")
}

func TestExec(t *testing.T) {
	sdl := writeFile(t, "schema.graphql", testSDL)
	root := writeFile(t, "root.json", testRoot)

	out, _, err := runCmd("exec", "-schema", sdl, "-root", root, "-query", "{ hello user(id: 1) { name age } users { id } }")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{
		"hello":"world",
		"user":{"name":"Ada","age":36},
		"users":[{"id":"1"},{"id":"2"}]
	}}`, out)
}

func TestExecQueryFileAndVariables(t *testing.T) {
	sdl := writeFile(t, "schema.graphql", testSDL)
	root := writeFile(t, "root.json", testRoot)
	query := writeFile(t, "query.graphql", `
		query A { hello }
		query B($id: ID!) { user(id: $id) { id } }
	`)

	out, _, err := runCmd("exec", "-schema", sdl, "-root", root, "-query.file", query,
		"-operation", "B", "-variables", `{"id":"1"}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"user":{"id":"1"}}}`, out)
}

func TestExecErrors(t *testing.T) {
	sdl := writeFile(t, "schema.graphql", testSDL)

	out, _, err := runCmd("exec", "-schema", sdl, "-query", "{ missing }")
	require.ErrorIs(t, err, errExecution)
	require.Contains(t, out, `Cannot query field \"missing\" on type \"Query\".`)

	// null root value: non-null list bubbles to data
	out, _, err = runCmd("exec", "-schema", sdl, "-query", "{ users { id } }")
	require.ErrorIs(t, err, errExecution)
	require.Contains(t, out, `"data":null`)

	_, _, err = runCmd("exec", "-schema", sdl)
	require.EqualError(t, err, "-query or -query.file is required")

	_, _, err = runCmd("exec", "-query", "{ hello }")
	require.EqualError(t, err, "-schema is required")

	_, _, err = runCmd("exec", "-schema", sdl, "-query", "{ hello }", "-log.level", "loud")
	require.Error(t, err)
}

func TestExecWithoutIntrospection(t *testing.T) {
	sdl := writeFile(t, "schema.graphql", testSDL)

	out, _, err := runCmd("exec", "-schema", sdl, "-introspection=false", "-query", "{ __schema { queryType { name } } hello }")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"hello":null}}`, out)

	out, _, err = runCmd("exec", "-schema", sdl, "-query", "{ __schema { queryType { name } } }")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"__schema":{"queryType":{"name":"Query"}}}}`, out)
}

func TestPrintSchema(t *testing.T) {
	sdl := writeFile(t, "schema.graphql", testSDL)

	out, _, err := runCmd("print-schema", "-schema", sdl)
	require.NoError(t, err)
	require.Contains(t, out, "type Query")
	require.Contains(t, out, "type User")

	dest := filepath.Join(t.TempDir(), "out.graphql")
	_, _, err = runCmd("print-schema", "-schema", sdl, "-out", dest)
	require.NoError(t, err)
	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, out, string(written))

	bad := writeFile(t, "bad.graphql", `type Query { user: Missing }`)
	_, _, err = runCmd("print-schema", "-schema", bad)
	require.Error(t, err)
}

func TestServeRequiresSchema(t *testing.T) {
	_, stderr, err := runCmd("serve")
	require.EqualError(t, err, "-schema is required")
	require.Contains(t, stderr, "serve FLAGS")
}
