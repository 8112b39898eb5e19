package gasoracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/chainpool/internal/chains"
	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// Oracle answers "what does gas cost right now" for EVM chains, going
// through the pool's retry executor like any trading caller. Prices are
// cached briefly so a burst of quote requests does not burn endpoint quota.
type Oracle struct {
	manager *rpcpool.Manager
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cachedPrice

	// fetch is swapped out by tests.
	fetch func(ctx context.Context, chain string) (*big.Int, error)
}

type cachedPrice struct {
	gwei decimal.Decimal
	at   time.Time
}

// New creates an oracle with a 15-second cache.
func New(m *rpcpool.Manager) *Oracle {
	o := &Oracle{
		manager: m,
		ttl:     15 * time.Second,
		cache:   make(map[string]cachedPrice),
	}
	o.fetch = o.suggestGasPrice
	return o
}

// GasPrice returns the suggested gas price for an EVM chain in gwei.
func (o *Oracle) GasPrice(ctx context.Context, chain string) (decimal.Decimal, error) {
	if !chains.IsEVM(chain) {
		return decimal.Zero, fmt.Errorf("gas price not supported for chain %q", chain)
	}

	o.mu.Lock()
	if c, ok := o.cache[chain]; ok && time.Since(c.at) < o.ttl {
		o.mu.Unlock()
		return c.gwei, nil
	}
	o.mu.Unlock()

	wei, err := o.fetch(ctx, chain)
	if err != nil {
		return decimal.Zero, err
	}
	gwei := decimal.NewFromBigInt(wei, -9)

	o.mu.Lock()
	o.cache[chain] = cachedPrice{gwei: gwei, at: time.Now()}
	o.mu.Unlock()

	log.Debug().Str("chain", chain).Str("gwei", gwei.StringFixed(2)).Msg("⛽ Gas price refreshed")
	return gwei, nil
}

func (o *Oracle) suggestGasPrice(ctx context.Context, chain string) (*big.Int, error) {
	return rpcpool.Execute(ctx, o.manager, chain, func(ctx context.Context, conn rpcpool.Conn) (*big.Int, error) {
		evm, ok := conn.(*chains.EVMConn)
		if !ok {
			return nil, fmt.Errorf("chain %q connection is not an EVM client", chain)
		}
		return evm.Eth().SuggestGasPrice(ctx)
	})
}
