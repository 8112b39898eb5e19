package chains

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// EVMConn wraps one go-ethereum client pair. The raw rpc.Client is exposed
// for callers that need non-standard methods (trace, debug namespaces).
type EVMConn struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

func dialEVM(ctx context.Context, url string) (*EVMConn, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &EVMConn{rpc: c, eth: ethclient.NewClient(c)}, nil
}

// Ping fetches the current block number as the liveness probe.
func (c *EVMConn) Ping(ctx context.Context) error {
	_, err := c.eth.BlockNumber(ctx)
	return err
}

func (c *EVMConn) Close() {
	c.eth.Close()
}

// Eth returns the typed ethclient handle.
func (c *EVMConn) Eth() *ethclient.Client { return c.eth }

// RPC returns the raw JSON-RPC client.
func (c *EVMConn) RPC() *rpc.Client { return c.rpc }

// EVMClient returns the best live ethclient for an EVM chain.
func EVMClient(ctx context.Context, m *rpcpool.Manager, chain string) (*ethclient.Client, error) {
	if !IsEVM(chain) {
		return nil, fmt.Errorf("chain %q is not EVM compatible", chain)
	}
	conn, err := m.BestConn(ctx, chain)
	if err != nil {
		return nil, err
	}
	evm, ok := conn.(*EVMConn)
	if !ok {
		return nil, fmt.Errorf("chain %q connection is not an EVM client", chain)
	}
	return evm.Eth(), nil
}

// Convenience per-chain accessors, thin wrappers over the pool selection.

func EthereumClient(ctx context.Context, m *rpcpool.Manager) (*ethclient.Client, error) {
	return EVMClient(ctx, m, Ethereum)
}

func PolygonClient(ctx context.Context, m *rpcpool.Manager) (*ethclient.Client, error) {
	return EVMClient(ctx, m, Polygon)
}

func BSCClient(ctx context.Context, m *rpcpool.Manager) (*ethclient.Client, error) {
	return EVMClient(ctx, m, BSC)
}

func ArbitrumClient(ctx context.Context, m *rpcpool.Manager) (*ethclient.Client, error) {
	return EVMClient(ctx, m, Arbitrum)
}

func BaseClient(ctx context.Context, m *rpcpool.Manager) (*ethclient.Client, error) {
	return EVMClient(ctx, m, Base)
}
