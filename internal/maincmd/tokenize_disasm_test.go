package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/lumen/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenizeFilesPrintsKindAndLexeme(t *testing.T) {
	path := writeTemp(t, "var a = 1;")
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	err := maincmd.TokenizeFiles(context.Background(), stdio, path)
	require.NoError(t, err)
	assert.Empty(t, ebuf.String())

	out := buf.String()
	assert.Contains(t, out, "var")
	assert.Contains(t, out, "identifier")
	assert.Contains(t, out, "number")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Contains(t, lines[len(lines)-1], "eof")
}

func TestTokenizeFilesMissingFileIsIOError(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	err := maincmd.TokenizeFiles(context.Background(), stdio, filepath.Join(t.TempDir(), "nope.lox"))
	require.Error(t, err)
	assert.NotEmpty(t, ebuf.String())
}

func TestDisasmFilesPrintsOpcodeNames(t *testing.T) {
	path := writeTemp(t, "print 1 + 2;")
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	err := maincmd.DisasmFiles(context.Background(), stdio, path)
	require.NoError(t, err)
	assert.Empty(t, ebuf.String())

	out := buf.String()
	assert.Contains(t, out, "constant")
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "print")
	assert.Contains(t, out, "return")
}

func TestDisasmFilesRecursesIntoNestedFunctions(t *testing.T) {
	path := writeTemp(t, "fun f() { return 1; } f();")
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	err := maincmd.DisasmFiles(context.Background(), stdio, path)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "== "+path+" ==")
	assert.Contains(t, out, "== f ==")
}

func TestDisasmFilesCompileErrorReported(t *testing.T) {
	path := writeTemp(t, "var ;")
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	err := maincmd.DisasmFiles(context.Background(), stdio, path)
	require.Error(t, err)
	assert.Contains(t, ebuf.String(), "Expect variable name.")
}
