package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

func TestRootCommandListsAnalyses(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"all", "fraud", "movies", "sales"}, names)
}

func TestMissingInputFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sales", "--env", filepath.Join(dir, "none.env")})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIO)

	root = newRootCmd()
	root.SetArgs([]string{"sales", "--env", filepath.Join(dir, "none.env"), "--threads", "-2"})
	assert.ErrorIs(t, root.ExecuteContext(context.Background()), core.ErrConfig)
}
