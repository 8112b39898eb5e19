package rpcpool

import (
	"context"
	"time"
)

// Conn is the opaque handle to an underlying chain client. Concrete
// implementations live in internal/chains (EVM, Solana); tests use fakes.
type Conn interface {
	// Ping issues a lightweight liveness call (current block / health).
	Ping(ctx context.Context) error
	Close()
}

// Dialer opens a connection for a chain endpoint URL.
type Dialer interface {
	Dial(ctx context.Context, chain, url string) (Conn, error)
}

// EndpointConfig describes one RPC target in static configuration.
type EndpointConfig struct {
	URL      string
	Priority int // lower = preferred
	MaxRPS   int // per-second capacity, 0 = pool default
}

// Endpoint is one RPC connection target plus its health bookkeeping.
// All fields except URL/Priority/MaxRPS are guarded by the Manager mutex.
type Endpoint struct {
	URL      string
	Priority int
	MaxRPS   int

	chain        string
	conn         Conn
	healthy      bool
	lastUsed     time.Time
	requestCount int64 // monotonic, never reset
	errorCount   int   // reset to 0 on any success
}

// EndpointStatus is a read-only snapshot of one endpoint.
type EndpointStatus struct {
	URL          string    `json:"url"`
	Priority     int       `json:"priority"`
	MaxRPS       int       `json:"maxRequestsPerSecond"`
	Healthy      bool      `json:"healthy"`
	Failed       bool      `json:"failed"`
	Connected    bool      `json:"connected"`
	RequestCount int64     `json:"requestCount"`
	ErrorCount   int       `json:"errorCount"`
	LastUsed     time.Time `json:"lastUsed"`
}

// ChainStatus is a read-only snapshot of one chain's pool.
type ChainStatus struct {
	Chain     string           `json:"chain"`
	Total     int              `json:"total"`
	Healthy   int              `json:"healthy"`
	Failed    int              `json:"failed"`
	Endpoints []EndpointStatus `json:"endpoints"`
}

// Status is a read-only snapshot of the whole pool, served by the admin API
// and the Telegram /status command.
type Status struct {
	Chains     map[string]ChainStatus `json:"chains"`
	FailedURLs []string               `json:"failedUrls"`
}
