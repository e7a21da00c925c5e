package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacetsCmd_BucketsByGenre(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	facets := NewRootCmd()
	buf := &bytes.Buffer{}
	facets.SetOut(buf)
	facets.SetArgs([]string{"--data-dir", dir, "facets", "movies", "genre"})
	require.NoError(t, facets.Execute())

	assert.Contains(t, buf.String(), "scifi")
	assert.Contains(t, buf.String(), "comedy")
}

func TestFacetsCmd_ScopedByQueryText(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	facets := NewRootCmd()
	buf := &bytes.Buffer{}
	facets.SetOut(buf)
	facets.SetArgs([]string{"--data-dir", dir, "facets", "movies", "genre", "Dune"})
	require.NoError(t, facets.Execute())

	assert.Contains(t, buf.String(), "scifi")
	assert.NotContains(t, buf.String(), "comedy")
}
