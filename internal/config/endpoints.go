package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/web3guy0/chainpool/internal/chains"
	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// endpointsFile is the YAML schema for ENDPOINTS_FILE:
//
//	chains:
//	  ethereum:
//	    - url: https://eth.example.com
//	      priority: 0
//	      maxRequestsPerSecond: 25
type endpointsFile struct {
	Chains map[string][]endpointEntry `yaml:"chains"`
}

type endpointEntry struct {
	URL                  string `yaml:"url"`
	Priority             int    `yaml:"priority"`
	MaxRequestsPerSecond int    `yaml:"maxRequestsPerSecond"`
}

// LoadEndpoints reads a per-chain endpoint list from a YAML file.
func LoadEndpoints(path string) (map[string][]rpcpool.EndpointConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file %s: %w", path, err)
	}

	var ef endpointsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endpoints YAML: %w", err)
	}
	if len(ef.Chains) == 0 {
		return nil, fmt.Errorf("no chains found in endpoints file %s", path)
	}

	out := make(map[string][]rpcpool.EndpointConfig, len(ef.Chains))
	for chain, entries := range ef.Chains {
		for _, e := range entries {
			if e.URL == "" {
				return nil, fmt.Errorf("endpoint with empty url for chain %q", chain)
			}
			out[chain] = append(out[chain], rpcpool.EndpointConfig{
				URL:      e.URL,
				Priority: e.Priority,
				MaxRPS:   e.MaxRequestsPerSecond,
			})
		}
	}
	return out, nil
}

// Endpoints resolves the effective per-chain endpoint lists: the YAML file
// when configured, else the built-in public defaults, with any
// <CHAIN>_RPC_URL override inserted at priority 0 as the preferred endpoint.
func (c *Config) Endpoints() (map[string][]rpcpool.EndpointConfig, error) {
	var base map[string][]rpcpool.EndpointConfig
	if c.EndpointsFile != "" {
		loaded, err := LoadEndpoints(c.EndpointsFile)
		if err != nil {
			return nil, err
		}
		base = loaded
	} else {
		base = chains.DefaultEndpoints()
	}

	for chain, url := range c.RPCOverrides {
		override := rpcpool.EndpointConfig{URL: url, Priority: 0, MaxRPS: c.MaxRequestsPerSecond}
		base[chain] = append([]rpcpool.EndpointConfig{override}, base[chain]...)
	}
	return base, nil
}
