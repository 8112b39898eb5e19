package gasoracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/chainpool/internal/chains"
)

func TestGasPriceConvertsWeiToGwei(t *testing.T) {
	o := New(nil)
	o.fetch = func(_ context.Context, _ string) (*big.Int, error) {
		return big.NewInt(25_000_000_000), nil
	}

	gwei, err := o.GasPrice(context.Background(), chains.Ethereum)
	require.NoError(t, err)
	assert.True(t, gwei.Equal(decimal.NewFromInt(25)), "got %s", gwei)
}

func TestGasPriceCaches(t *testing.T) {
	o := New(nil)
	calls := 0
	o.fetch = func(_ context.Context, _ string) (*big.Int, error) {
		calls++
		return big.NewInt(30_000_000_000), nil
	}

	_, err := o.GasPrice(context.Background(), chains.Polygon)
	require.NoError(t, err)
	_, err = o.GasPrice(context.Background(), chains.Polygon)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call within the TTL must hit the cache")
}

func TestGasPriceCacheIsPerChain(t *testing.T) {
	o := New(nil)
	calls := 0
	o.fetch = func(_ context.Context, _ string) (*big.Int, error) {
		calls++
		return big.NewInt(1_000_000_000), nil
	}

	_, err := o.GasPrice(context.Background(), chains.Ethereum)
	require.NoError(t, err)
	_, err = o.GasPrice(context.Background(), chains.BSC)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGasPriceRejectsNonEVM(t *testing.T) {
	o := New(nil)
	_, err := o.GasPrice(context.Background(), chains.Solana)
	assert.Error(t, err)
}

func TestGasPriceFetchErrorNotCached(t *testing.T) {
	o := New(nil)
	calls := 0
	o.fetch = func(_ context.Context, _ string) (*big.Int, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("boom")
		}
		return big.NewInt(2_000_000_000), nil
	}

	_, err := o.GasPrice(context.Background(), chains.Ethereum)
	require.Error(t, err)

	gwei, err := o.GasPrice(context.Background(), chains.Ethereum)
	require.NoError(t, err)
	assert.True(t, gwei.Equal(decimal.NewFromInt(2)), "got %s", gwei)
}
