package fixtures

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	a := Generate(42, 30, 100)
	b := Generate(42, 30, 100)
	require.Equal(t, a, b)
	require.Len(t, a.Athletes, 30)
	require.Len(t, a.Rows, 100)

	c := Generate(43, 30, 100)
	require.NotEqual(t, a.Rows, c.Rows)
}

func TestGenerate_NoAthletes(t *testing.T) {
	t.Parallel()

	set := Generate(1, 0, 10)
	require.Empty(t, set.Athletes)
	for _, r := range set.Rows {
		require.Contains(t, noise, r.Description)
	}
}
