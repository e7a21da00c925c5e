package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMovies(t *testing.T, dir string) {
	t.Helper()
	docs := []struct{ id, fields string }{
		{"m1", `{"title":"Dune","genre":"scifi"}`},
		{"m2", `{"title":"Dune Messiah","genre":"scifi"}`},
		{"m3", `{"title":"Clueless","genre":"comedy"}`},
	}
	for _, d := range docs {
		put := NewRootCmd()
		put.SetArgs([]string{"--data-dir", dir, "put", "movies", d.id, d.fields})
		require.NoError(t, put.Execute())
	}
}

func TestSearchCmd_PlainTextMatchesTitle(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	search := NewRootCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"--data-dir", dir, "search", "movies", "Dune"})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "Dune")
}

func TestSearchCmd_NoTextMatchesEverything(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	search := NewRootCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"--data-dir", dir, "search", "movies"})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "\"Total\"")
}

func TestSearchCmd_QueryJSONOverridesText(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	search := NewRootCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{
		"--data-dir", dir, "search", "movies", "Dune",
		"--query-json", `{"match":{"field":"genre","value":"comedy"}}`,
	})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "Clueless")
	assert.NotContains(t, buf.String(), "Dune")
}

func TestSearchCmd_NeverCreatedIndexAutoCreatesEmpty(t *testing.T) {
	dir := t.TempDir()

	search := NewRootCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"--data-dir", dir, "search", "ghosts", "anything"})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "\"Total\": 0")
}
