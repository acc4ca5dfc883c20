package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range collect() {
		require.False(t, seen[a.Name], "duplicate analyzer %s", a.Name)
		seen[a.Name] = true
	}

	for _, name := range []string{"noconsolelog", "bodyclose", "nilerr", "ST1000", "SA1019", "printf", "shadow"} {
		require.True(t, seen[name], name)
	}
}
