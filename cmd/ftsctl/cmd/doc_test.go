package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGetCmd_RoundTrips(t *testing.T) {
	// Given: a fresh data directory
	dir := t.TempDir()

	// When: a document is put and then fetched back
	put := NewRootCmd()
	put.SetArgs([]string{"--data-dir", dir, "put", "movies", "m1", `{"title":"Dune","genre":"scifi"}`})
	require.NoError(t, put.Execute())

	get := NewRootCmd()
	buf := &bytes.Buffer{}
	get.SetOut(buf)
	get.SetArgs([]string{"--data-dir", dir, "get", "movies", "m1"})
	require.NoError(t, get.Execute())

	// Then: the fetched fields match what was put
	assert.Contains(t, buf.String(), "Dune")
	assert.Contains(t, buf.String(), "scifi")
}

func TestGetCmd_MissingDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	create := NewRootCmd()
	create.SetArgs([]string{"--data-dir", dir, "create-index", "movies"})
	require.NoError(t, create.Execute())

	get := NewRootCmd()
	get.SetArgs([]string{"--data-dir", dir, "get", "movies", "missing"})
	err := get.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDeleteCmd_RemovesDocumentAcrossInvocations(t *testing.T) {
	dir := t.TempDir()

	put := NewRootCmd()
	put.SetArgs([]string{"--data-dir", dir, "put", "movies", "m1", `{"title":"Dune"}`})
	require.NoError(t, put.Execute())

	del := NewRootCmd()
	buf := &bytes.Buffer{}
	del.SetOut(buf)
	del.SetArgs([]string{"--data-dir", dir, "delete", "movies", "m1"})
	require.NoError(t, del.Execute())
	assert.Contains(t, buf.String(), "deleted")

	get := NewRootCmd()
	get.SetArgs([]string{"--data-dir", dir, "get", "movies", "m1"})
	err := get.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
