package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCreateAndList(t *testing.T) {
	dir := t.TempDir()
	seedMovies(t, dir)

	list := NewRootCmd()
	buf := &bytes.Buffer{}
	list.SetOut(buf)
	list.SetArgs([]string{"--data-dir", dir, "snapshot", "list", "movies"})
	require.NoError(t, list.Execute())

	// seedMovies' three put commands each auto-snapshot, so at least one
	// manifest line is present.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.NotEmpty(t, lines)
	assert.Contains(t, buf.String(), "docs=")
}

func TestSnapshotRestore_BringsBackDeletedDocument(t *testing.T) {
	dir := t.TempDir()

	put := NewRootCmd()
	put.SetArgs([]string{"--data-dir", dir, "put", "movies", "m1", `{"title":"Dune"}`})
	require.NoError(t, put.Execute())

	listBeforeDelete := NewRootCmd()
	listBuf := &bytes.Buffer{}
	listBeforeDelete.SetOut(listBuf)
	listBeforeDelete.SetArgs([]string{"--data-dir", dir, "snapshot", "list", "movies"})
	require.NoError(t, listBeforeDelete.Execute())
	firstLine := strings.Split(strings.TrimSpace(listBuf.String()), "\n")[0]
	snapshotID := strings.Fields(firstLine)[0]

	del := NewRootCmd()
	del.SetArgs([]string{"--data-dir", dir, "delete", "movies", "m1"})
	require.NoError(t, del.Execute())

	restore := NewRootCmd()
	restore.SetArgs([]string{"--data-dir", dir, "snapshot", "restore", "movies", snapshotID})
	require.NoError(t, restore.Execute())

	get := NewRootCmd()
	buf := &bytes.Buffer{}
	get.SetOut(buf)
	get.SetArgs([]string{"--data-dir", dir, "get", "movies", "m1"})
	require.NoError(t, get.Execute())
	assert.Contains(t, buf.String(), "Dune")
}
