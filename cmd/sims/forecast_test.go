package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamFlagsOnlySetWhenChanged(t *testing.T) {
	var pf paramFlags
	cmd := &cobra.Command{Use: "forecast"}
	pf.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--trials", "2500", "--home-weight", "0.8"}))

	params := pf.params(cmd)
	require.NotNil(t, params.Trials)
	assert.Equal(t, 2500, *params.Trials)
	require.NotNil(t, params.HomeFormWeight)
	assert.InDelta(t, 0.8, *params.HomeFormWeight, 1e-9)
	assert.Nil(t, params.FormWeight)
	assert.Nil(t, params.AwayFormWeight)
}
