package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownPairs(t *testing.T) {
	c := New("")

	for _, tc := range []struct {
		symbol, chain string
		decimals      int32
	}{
		{"USDC", "base", 6},
		{"USDC", "near", 6},
		{"wNEAR", "near", 24},
	} {
		token, err := c.Resolve(tc.symbol, tc.chain)
		require.NoError(t, err, "%s/%s", tc.symbol, tc.chain)
		assert.Equal(t, tc.decimals, token.Decimals)
		assert.NotEmpty(t, token.AssetID)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	c := New("")

	a, err := c.Resolve("usdc", "BASE")
	require.NoError(t, err)
	b, err := c.Resolve("USDC", "base")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveUnmappedPair(t *testing.T) {
	c := New("")

	_, err := c.Resolve("DOGE", "base")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlattenIsTotal(t *testing.T) {
	base := Token{AssetID: "nep141:wrap.near", Chain: "near", Symbol: "wNEAR", Decimals: 24}

	assert.Equal(t, []Token{base}, Entry{Base: &base}.Flatten())

	unified := Entry{Unified: []Token{base, {AssetID: "x", Chain: "base", Symbol: "wNEAR", Decimals: 24}}}
	assert.Len(t, unified.Flatten(), 2)

	assert.Empty(t, Entry{}.Flatten(), "empty variant flattens to nothing")
}

func TestFlattenCopiesUnified(t *testing.T) {
	entry := Entry{Unified: []Token{{Symbol: "USDC"}}}
	out := entry.Flatten()
	out[0].Symbol = "mutated"
	assert.Equal(t, "USDC", entry.Unified[0].Symbol)
}
