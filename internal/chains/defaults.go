package chains

import "github.com/web3guy0/chainpool/internal/rpcpool"

// DefaultEndpoints returns the built-in public endpoint list per chain,
// used when no endpoints file is configured. Priorities leave room for
// operator-paid endpoints to slot in at 0 via env overrides.
func DefaultEndpoints() map[string][]rpcpool.EndpointConfig {
	return map[string][]rpcpool.EndpointConfig{
		Ethereum: {
			{URL: "https://eth.llamarpc.com", Priority: 1, MaxRPS: 10},
			{URL: "https://rpc.ankr.com/eth", Priority: 2, MaxRPS: 10},
			{URL: "https://ethereum-rpc.publicnode.com", Priority: 3, MaxRPS: 10},
		},
		Polygon: {
			{URL: "https://polygon-rpc.com", Priority: 1, MaxRPS: 10},
			{URL: "https://rpc.ankr.com/polygon", Priority: 2, MaxRPS: 10},
			{URL: "https://polygon-bor-rpc.publicnode.com", Priority: 3, MaxRPS: 10},
		},
		BSC: {
			{URL: "https://bsc-dataseed.binance.org", Priority: 1, MaxRPS: 10},
			{URL: "https://rpc.ankr.com/bsc", Priority: 2, MaxRPS: 10},
			{URL: "https://bsc-rpc.publicnode.com", Priority: 3, MaxRPS: 10},
		},
		Arbitrum: {
			{URL: "https://arb1.arbitrum.io/rpc", Priority: 1, MaxRPS: 10},
			{URL: "https://rpc.ankr.com/arbitrum", Priority: 2, MaxRPS: 10},
		},
		Base: {
			{URL: "https://mainnet.base.org", Priority: 1, MaxRPS: 10},
			{URL: "https://base-rpc.publicnode.com", Priority: 2, MaxRPS: 10},
		},
		Solana: {
			{URL: "https://api.mainnet-beta.solana.com", Priority: 1, MaxRPS: 10},
			{URL: "https://solana-rpc.publicnode.com", Priority: 2, MaxRPS: 10},
		},
	}
}
