package rpcpool

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Administrative surface: runtime endpoint management and read-only
// snapshots for the HTTP API and the Telegram alerter. None of the
// snapshot calls mutate pool state.

// AddRPC appends a new endpoint descriptor to a chain's pool. The
// connection is dialed lazily on first selection, not at add time. Adding
// to an unknown chain creates its pool.
func (m *Manager) AddRPC(chain, url string, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ep := range m.pools[chain] {
		if ep.URL == url {
			return ErrEndpointExists
		}
	}
	m.pools[chain] = append(m.pools[chain], &Endpoint{
		URL:      url,
		Priority: priority,
		chain:    chain,
		healthy:  true,
	})
	log.Info().Str("chain", chain).Str("url", url).Int("priority", priority).Msg("➕ RPC endpoint added")
	return nil
}

// RemoveRPC deletes an endpoint descriptor, closes its connection and clears
// every trace of it (failed set, rate window).
func (m *Manager) RemoveRPC(chain, url string) error {
	m.mu.Lock()
	pool, ok := m.pools[chain]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownChain
	}
	idx := -1
	for i, ep := range pool {
		if ep.URL == url {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrEndpointNotFound
	}
	removed := pool[idx]
	m.pools[chain] = append(pool[:idx], pool[idx+1:]...)
	delete(m.failed, url)
	conn := removed.conn
	removed.conn = nil
	m.mu.Unlock()

	m.counters.Forget(url)
	if conn != nil {
		conn.Close()
	}
	log.Info().Str("chain", chain).Str("url", url).Msg("➖ RPC endpoint removed")
	return nil
}

// Status returns a snapshot of every chain pool plus the global failed set.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Chains: make(map[string]ChainStatus, len(m.pools))}
	for chain := range m.pools {
		st.Chains[chain] = m.chainStatusLocked(chain)
	}
	st.FailedURLs = make([]string, 0, len(m.failed))
	for url := range m.failed {
		st.FailedURLs = append(st.FailedURLs, url)
	}
	sort.Strings(st.FailedURLs)
	return st
}

// ChainStats returns the snapshot for a single chain.
func (m *Manager) ChainStats(chain string) (ChainStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[chain]; !ok {
		return ChainStatus{}, ErrUnknownChain
	}
	return m.chainStatusLocked(chain), nil
}

func (m *Manager) chainStatusLocked(chain string) ChainStatus {
	pool := m.pools[chain]
	cs := ChainStatus{
		Chain:     chain,
		Total:     len(pool),
		Endpoints: make([]EndpointStatus, 0, len(pool)),
	}
	for _, ep := range pool {
		_, failed := m.failed[ep.URL]
		if ep.healthy {
			cs.Healthy++
		}
		if failed {
			cs.Failed++
		}
		cs.Endpoints = append(cs.Endpoints, EndpointStatus{
			URL:          ep.URL,
			Priority:     ep.Priority,
			MaxRPS:       m.capacity(ep),
			Healthy:      ep.healthy,
			Failed:       failed,
			Connected:    ep.conn != nil,
			RequestCount: ep.requestCount,
			ErrorCount:   ep.errorCount,
			LastUsed:     ep.lastUsed,
		})
	}
	return cs
}
