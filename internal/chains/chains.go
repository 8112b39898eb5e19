package chains

import (
	"context"
	"fmt"
	"time"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// Supported chain identifiers. These are the keys used for pool
// registration, config overrides (<CHAIN>_RPC_URL) and the admin API.
const (
	Ethereum = "ethereum"
	Polygon  = "polygon"
	BSC      = "bsc"
	Arbitrum = "arbitrum"
	Base     = "base"
	Solana   = "solana"
)

// All returns every supported chain in registration order.
func All() []string {
	return []string{Ethereum, Polygon, BSC, Arbitrum, Base, Solana}
}

// IsEVM reports whether the chain speaks Ethereum JSON-RPC.
func IsEVM(chain string) bool {
	return chain != Solana
}

// Dialer opens connections for any supported chain and satisfies
// rpcpool.Dialer.
type Dialer struct {
	Timeout time.Duration
}

func NewDialer() *Dialer {
	return &Dialer{Timeout: 10 * time.Second}
}

// Dial creates the chain-appropriate client for url. The handle is cheap to
// create; liveness is established by the first Ping.
func (d *Dialer) Dial(ctx context.Context, chain, url string) (rpcpool.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	switch {
	case chain == Solana:
		return dialSolana(url)
	case IsEVM(chain):
		return dialEVM(ctx, url)
	default:
		return nil, fmt.Errorf("%w: %q", rpcpool.ErrUnknownChain, chain)
	}
}
