package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlistAddNeedsExactlyOneTarget(t *testing.T) {
	for name, args := range map[string][]string{
		"neither": {"add"},
		"both":    {"add", "0b5a8c1e-6f0e-4d3a-9c51-0a1d2e3f4b5c", "--forecast", "0b5a8c1e-6f0e-4d3a-9c51-0a1d2e3f4b5d"},
	} {
		t.Run(name, func(t *testing.T) {
			cmd := watchlistCmd()
			cmd.SetArgs(args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "either an event id or --forecast")
		})
	}
}
