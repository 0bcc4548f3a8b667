package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCmd_PrintsSnapshot(t *testing.T) {
	withTestProject(t)

	cmd := newMemoryCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "MB RSS")
}

func TestStatsCmd_ListsCompletedRefresh(t *testing.T) {
	withTestProject(t)

	cmd := newStatsCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "refresh")
}
