package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := NewRoot()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSortCommand(t *testing.T) {
	file := writeFile(t, "values.yaml", "- b\n- 2\n- 1.5\n- null\n- .nan\n- true\n")

	out, err := run(t, "sort", "-o", "plain", file)
	require.NoError(t, err)
	autogold.Expect("null\ntrue\nNaN\n1.5\n2\n\"b\"\n").Equal(t, out)

	out, err = run(t, "sort", "-o", "plain", "--reverse", file)
	require.NoError(t, err)
	autogold.Expect("\"b\"\n2\n1.5\nNaN\ntrue\nnull\n").Equal(t, out)

	out, err = run(t, "sort", file)
	require.NoError(t, err)
	assert.Contains(t, out, "_6 values_")

	out, err = run(t, "sort", "-o", "yaml", writeFile(t, "ints.yaml", "[3, 1, 2]"))
	require.NoError(t, err)
	autogold.Expect("- 1\n- 2\n- 3\n").Equal(t, out)
}

func TestSortCommandErrors(t *testing.T) {
	_, err := run(t, "sort", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, "sort", writeFile(t, "map.yaml", "a: 1"))
	assert.Error(t, err)

	_, err = run(t, "sort", "-o", "xml", writeFile(t, "ok.yaml", "[1]"))
	assert.ErrorContains(t, err, "unknown output format")

	_, err = run(t, "sort", "--log-level", "loud", writeFile(t, "ok.yaml", "[1]"))
	assert.ErrorContains(t, err, "log level")
}

func TestCompareCommand(t *testing.T) {
	out, err := run(t, "compare", "1", "2.5")
	require.NoError(t, err)
	autogold.Expect("1 < 2.5\n").Equal(t, out)

	out, err = run(t, "compare", "!nan", ".nan")
	require.NoError(t, err)
	autogold.Expect("NaN == NaN\n").Equal(t, out)

	out, err = run(t, "compare", "-o", "yaml", "{a: 1}", "[1, 2]")
	require.NoError(t, err)
	autogold.Expect("result: descending\n").Equal(t, out)

	_, err = run(t, "compare", "1")
	assert.Error(t, err)
}

func TestEncodeCommand(t *testing.T) {
	out, err := run(t, "encode", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "type:     integer (number)")
	assert.Contains(t, out, "sort key: ")
	assert.Contains(t, out, "encoding: 020000000000000007")
}

func TestStoreCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	alice := writeFile(t, "alice.yaml", "name: Alice\nage: 30\n")
	bob := writeFile(t, "bob.yaml", "name: Bob\nage: 25.5\n")
	carol := writeFile(t, "carol.yaml", "name: Carol\n")

	for path, file := range map[string]string{"users/alice": alice, "users/bob": bob, "users/carol": carol} {
		out, err := run(t, "put", "--db", db, path, file)
		require.NoError(t, err)
		assert.Len(t, out, 26) // id + newline
	}

	out, err := run(t, "get", "--db", db, "-o", "yaml", "users/alice")
	require.NoError(t, err)
	autogold.Expect("age: 30\nname: Alice\n").Equal(t, out)

	out, err = run(t, "scan", "--db", db, "-o", "plain", "age")
	require.NoError(t, err)
	autogold.Expect("users/bob\t25.5\nusers/alice\t30\n").Equal(t, out)

	out, err = run(t, "scan", "--db", db, "--count", "name")
	require.NoError(t, err)
	autogold.Expect("3\n").Equal(t, out)

	out, err = run(t, "scan", "--db", db, "-o", "plain", "--start", "Bob", "--end", "Carol", "name")
	require.NoError(t, err)
	autogold.Expect("users/bob\t\"Bob\"\n").Equal(t, out)

	out, err = run(t, "scan", "--db", db, "-o", "plain", "--limit", "1", "name")
	require.NoError(t, err)
	autogold.Expect("users/alice\t\"Alice\"\n").Equal(t, out)

	out, err = run(t, "scan", "--db", db, "age")
	require.NoError(t, err)
	assert.Contains(t, out, "_2 documents_")

	_, err = run(t, "delete", "--db", db, "users/bob")
	require.NoError(t, err)

	out, err = run(t, "scan", "--db", db, "--count", "age")
	require.NoError(t, err)
	autogold.Expect("1\n").Equal(t, out)

	_, err = run(t, "get", "--db", db, "users/bob")
	assert.ErrorContains(t, err, "not found")
}

func TestPutRejectsNonObject(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	_, err := run(t, "put", "--db", db, "users/x", writeFile(t, "list.yaml", "[1, 2]"))
	assert.Error(t, err)

	_, err = run(t, "put", "--db", db, "users", writeFile(t, "obj.yaml", "a: 1"))
	assert.Error(t, err)
}

func TestVerboseAnnotations(t *testing.T) {
	color.NoColor = true
	db := filepath.Join(t.TempDir(), "db")

	cmd := NewRoot()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"put", "--verbose", "--db", db, "a/b", writeFile(t, "doc.yaml", "x: 1\n")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "put a/b with 1 index keys")
}
