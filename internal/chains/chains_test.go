package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEVM(t *testing.T) {
	assert.True(t, IsEVM(Ethereum))
	assert.True(t, IsEVM(Polygon))
	assert.True(t, IsEVM(BSC))
	assert.True(t, IsEVM(Arbitrum))
	assert.True(t, IsEVM(Base))
	assert.False(t, IsEVM(Solana))
}

func TestDefaultEndpointsCoverEveryChain(t *testing.T) {
	defaults := DefaultEndpoints()
	for _, chain := range All() {
		eps := defaults[chain]
		require.NotEmpty(t, eps, "chain %s needs built-in endpoints", chain)
		for _, ep := range eps {
			assert.NotEmpty(t, ep.URL)
			assert.Positive(t, ep.Priority, "defaults leave priority 0 for overrides")
			assert.Positive(t, ep.MaxRPS)
		}
	}
}

func TestDefaultEndpointsAreFailoverOrdered(t *testing.T) {
	for chain, eps := range DefaultEndpoints() {
		for i := 1; i < len(eps); i++ {
			assert.Greater(t, eps[i].Priority, eps[i-1].Priority,
				"chain %s endpoints must be listed primary-first", chain)
		}
	}
}
