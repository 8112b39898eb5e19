package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

func TestFormatEventEndpointDown(t *testing.T) {
	msg := formatEvent(rpcpool.Event{
		Type:   rpcpool.EventEndpointDown,
		Chain:  "ethereum",
		URL:    "https://eth.llamarpc.com",
		Detail: "connection refused",
		At:     time.Now(),
	})
	assert.Contains(t, msg, "ENDPOINT DOWN")
	assert.Contains(t, msg, "ethereum")
	assert.Contains(t, msg, "https://eth.llamarpc.com")
	assert.Contains(t, msg, "connection refused")
}

func TestFormatEventRecovered(t *testing.T) {
	msg := formatEvent(rpcpool.Event{
		Type:  rpcpool.EventEndpointRecovered,
		Chain: "bsc",
		URL:   "https://bsc-rpc.publicnode.com",
	})
	assert.Contains(t, msg, "RECOVERED")
	assert.Contains(t, msg, "bsc")
}

func TestFormatEventCircuitReset(t *testing.T) {
	msg := formatEvent(rpcpool.Event{
		Type:  rpcpool.EventCircuitReset,
		Chain: "polygon",
	})
	assert.Contains(t, msg, "CIRCUIT BREAKER")
	assert.Contains(t, msg, "polygon")
}

func TestFormatStatus(t *testing.T) {
	st := rpcpool.Status{
		Chains: map[string]rpcpool.ChainStatus{
			"ethereum": {Chain: "ethereum", Total: 3, Healthy: 3},
			"solana":   {Chain: "solana", Total: 2, Healthy: 1},
			"bsc":      {Chain: "bsc", Total: 2, Healthy: 0},
		},
		FailedURLs: []string{"https://bad.example"},
	}

	msg := formatStatus(st)
	assert.Contains(t, msg, "🟢 *ETHEREUM* — 3/3 healthy")
	assert.Contains(t, msg, "🟡 *SOLANA* — 1/2 healthy")
	assert.Contains(t, msg, "🔴 *BSC* — 0/2 healthy")
	assert.Contains(t, msg, "Failed endpoints: *1*")
}

func TestHealthEmoji(t *testing.T) {
	assert.Equal(t, "⛔", healthEmoji(rpcpool.EndpointStatus{Healthy: true, Failed: true}))
	assert.Equal(t, "🟢", healthEmoji(rpcpool.EndpointStatus{Healthy: true}))
	assert.Equal(t, "🔴", healthEmoji(rpcpool.EndpointStatus{}))
}
