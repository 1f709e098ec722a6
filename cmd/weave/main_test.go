package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/compiler"
)

const listTemplate = `<div class="app">
  <header><h1>Todos</h1><p>static</p></header>
  <ul><li v-for="t in todos" :key="t.id" :class="{done: t.done}">{{ t.text }}</li></ul>
</div>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dir", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeTemplate(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.html")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestBuildReport(t *testing.T) {
	prog, err := compiler.CompileFile("list.html", listTemplate)
	require.NoError(t, err)

	r := buildReport("list.html", listTemplate, prog)
	assert.Equal(t, len(listTemplate), r.Bytes)
	require.Len(t, r.Statics, 1)
	assert.Equal(t, "header", r.Statics[0].Tag)
	assert.Len(t, r.Statics[0].Hash, 16)

	byPath := map[string]nodeReport{}
	for _, n := range r.Nodes {
		byPath[n.Path] = n
	}
	assert.Equal(t, "hoisted", byPath["div > header"].Class)
	assert.Equal(t, "HOISTED", byPath["div > header"].Flags)
	assert.NotContains(t, byPath, "div > header > h1")
	assert.Equal(t, "container", byPath["div"].Class)
	assert.Equal(t, 2, r.Containers)
	li := byPath["div > ul > li"]
	assert.Equal(t, 2, li.Depth)
	assert.Equal(t, 3, li.Line)
	assert.Contains(t, li.Flags, "DIRECTIVE")
	assert.Equal(t, "div", r.Nodes[0].Path)
}

func TestCompileCommandJSON(t *testing.T) {
	path := writeTemplate(t, listTemplate)
	out, err := execute(t, "compile", path, "--json")
	require.NoError(t, err)

	var r compileReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, path, r.File)
	assert.NotEmpty(t, r.Nodes)
}

func TestCompileCommandTable(t *testing.T) {
	path := writeTemplate(t, listTemplate)
	out, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ELEMENT")
	assert.Contains(t, out, "hoisted")
	assert.Contains(t, out, "DIRECTIVE")
}

func TestCompileCommandErrors(t *testing.T) {
	_, err := execute(t, "compile", filepath.Join(t.TempDir(), "missing.html"))
	assert.True(t, stderrors.Is(err, errors.New("W140")))

	path := writeTemplate(t, `<div><p v-for="x">{{ x }}</p></div>`)
	_, err = execute(t, "compile", path)
	var werr *errors.Error
	require.True(t, stderrors.As(err, &werr))
	assert.Equal(t, "W004", werr.Code)
	assert.Equal(t, "list.html", werr.Location.File)
}

func TestInvalidLogFlag(t *testing.T) {
	_, err := execute(t, "--log-format", "xml", "compile", "x.html")
	assert.True(t, stderrors.Is(err, errors.New("W120")))
}

func TestBenchCommand(t *testing.T) {
	out, err := execute(t, "bench", "--items", "20", "--rounds", "3")
	require.NoError(t, err)
	for _, w := range workloads {
		assert.Contains(t, out, w.name)
	}
	assert.Contains(t, out, "create 20")
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}
