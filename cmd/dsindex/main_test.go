package main

import (
	"bytes"
	"testing"

	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintFiles(t *testing.T) {
	o := &search.Object{Name: "x.txt", Path: "/ds_user", SystemID: "designsafe.storage.default", Type: "file", Format: "raw"}

	defer func(prev string) { output = prev }(output)

	output = "yaml"
	var buf bytes.Buffer
	require.NoError(t, printFiles(&buf, o))
	assert.Contains(t, buf.String(), "name: x.txt")
	assert.Contains(t, buf.String(), "path: ds_user/x.txt")

	output = "json"
	buf.Reset()
	require.NoError(t, printFiles(&buf, o))
	assert.Contains(t, buf.String(), `"path": "ds_user/x.txt"`)

	output = "xml"
	assert.Error(t, printFiles(&buf, o))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ls", "find", "index", "mv", "cp", "rename", "rm", "share"} {
		assert.True(t, names[want], want)
	}
}
