package chains

import (
	"context"
	"fmt"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// SolanaConn wraps a Solana cluster RPC client.
type SolanaConn struct {
	rpc *solrpc.Client
}

func dialSolana(url string) (*SolanaConn, error) {
	return &SolanaConn{rpc: solrpc.New(url)}, nil
}

// Ping uses getHealth as the liveness probe.
func (c *SolanaConn) Ping(ctx context.Context) error {
	out, err := c.rpc.GetHealth(ctx)
	if err != nil {
		return err
	}
	if out != solrpc.HealthOk {
		return fmt.Errorf("solana node unhealthy: %s", out)
	}
	return nil
}

func (c *SolanaConn) Close() {
	_ = c.rpc.Close()
}

// Client returns the typed Solana RPC handle.
func (c *SolanaConn) Client() *solrpc.Client { return c.rpc }

// SolanaClient returns the best live Solana cluster client.
func SolanaClient(ctx context.Context, m *rpcpool.Manager) (*solrpc.Client, error) {
	conn, err := m.BestConn(ctx, Solana)
	if err != nil {
		return nil, err
	}
	sol, ok := conn.(*SolanaConn)
	if !ok {
		return nil, fmt.Errorf("solana connection has unexpected type")
	}
	return sol.Client(), nil
}
