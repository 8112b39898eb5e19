package rpcpool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/metrics"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RPC MANAGER - Multi-chain endpoint pool with failover
// ═══════════════════════════════════════════════════════════════════════════════
//
// One Manager owns every chain's endpoint pool. Selection picks the healthiest
// endpoint under its rate cap, Execute retries with backoff, and a background
// HealthMonitor probes liveness outside the request path. When every endpoint
// of a chain is marked failed, the next selection clears the failed set once
// (circuit breaker) before giving up.
//
// ═══════════════════════════════════════════════════════════════════════════════

// unhealthyAfter is the consecutive-failure count at which an endpoint is
// demoted. Single blips never flip health (hysteresis).
const unhealthyAfter = 5

// Manager routes requests to the best endpoint per chain. It is constructed
// once by the composition root and shared by reference; all pool state lives
// behind its mutex.
type Manager struct {
	mu     sync.Mutex
	pools  map[string][]*Endpoint
	failed map[string]struct{} // endpoint URLs excluded from selection

	dialer        Dialer
	counters      *RateCounter
	defaultMaxRPS int
	maxRetries    int

	onEvent func(Event)

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an empty Manager. defaultMaxRPS caps endpoints that do not
// declare their own capacity.
func New(dialer Dialer, defaultMaxRPS int) *Manager {
	if defaultMaxRPS <= 0 {
		defaultMaxRPS = 10
	}
	return &Manager{
		pools:         make(map[string][]*Endpoint),
		failed:        make(map[string]struct{}),
		dialer:        dialer,
		counters:      NewRateCounter(),
		defaultMaxRPS: defaultMaxRPS,
		maxRetries:    defaultMaxRetries,
		sleep:         sleepCtx,
	}
}

// SetMaxRetries overrides the default retry budget used by Execute when the
// caller passes no explicit options.
func (m *Manager) SetMaxRetries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxRetries = n
	}
}

// SetEventHandler registers a callback for health/circuit events. The
// handler runs outside the pool mutex and may call back into the Manager.
func (m *Manager) SetEventHandler(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = fn
}

// AddChain registers a chain's endpoint list. Endpoints start optimistic
// (healthy) and are demoted by probes or request failures.
func (m *Manager) AddChain(chain string, endpoints []EndpointConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ec := range endpoints {
		m.pools[chain] = append(m.pools[chain], &Endpoint{
			URL:      ec.URL,
			Priority: ec.Priority,
			MaxRPS:   ec.MaxRPS,
			chain:    chain,
			healthy:  true,
		})
	}
	log.Info().Str("chain", chain).Int("endpoints", len(endpoints)).Msg("🔗 Chain pool registered")
}

// Connect dials every configured endpoint up front and pings it once.
// Dial failures are logged, not fatal: the endpoint stays registered and is
// re-dialed lazily on first selection.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	type target struct {
		chain string
		ep    *Endpoint
	}
	var targets []target
	for chain, pool := range m.pools {
		for _, ep := range pool {
			targets = append(targets, target{chain, ep})
		}
	}
	m.mu.Unlock()

	for _, t := range targets {
		conn, err := m.dialer.Dial(ctx, t.chain, t.ep.URL)
		if err != nil {
			log.Warn().Str("chain", t.chain).Str("url", t.ep.URL).Err(err).Msg("⚠️ Endpoint dial failed, will retry on use")
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pingErr := conn.Ping(pingCtx)
		cancel()

		m.mu.Lock()
		t.ep.conn = conn
		if pingErr != nil {
			t.ep.errorCount++
			log.Warn().Str("chain", t.chain).Str("url", t.ep.URL).Err(pingErr).Msg("⚠️ Endpoint ping failed at startup")
		}
		m.mu.Unlock()
		metrics.SetEndpointHealthy(t.chain, t.ep.URL, pingErr == nil)
	}
}

// Close closes every open connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pool := range m.pools {
		for _, ep := range pool {
			if ep.conn != nil {
				ep.conn.Close()
				ep.conn = nil
			}
		}
	}
}

// Chains returns the configured chain identifiers, sorted.
func (m *Manager) Chains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pools))
	for chain := range m.pools {
		out = append(out, chain)
	}
	sort.Strings(out)
	return out
}

// BestConn returns the single best live connection for chain, or
// ErrNoHealthyEndpoint. The selection is recorded against the endpoint's
// rate window and request counter.
func (m *Manager) BestConn(ctx context.Context, chain string) (Conn, error) {
	_, conn, err := m.acquire(ctx, chain)
	return conn, err
}

// acquire selects and records the best endpoint, dialing lazily when the
// endpoint has no live connection yet (runtime-added endpoints, or startup
// dial failures).
func (m *Manager) acquire(ctx context.Context, chain string) (*Endpoint, Conn, error) {
	m.mu.Lock()
	pool, ok := m.pools[chain]
	if !ok || len(pool) == 0 {
		m.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownChain, chain)
	}

	ep := m.selectLocked(pool)
	if ep == nil && len(m.failed) > 0 && len(m.failed) >= len(pool) {
		// Circuit breaker: the whole pool is marked failed, likely a shared
		// upstream blip. Clear the failed set once and retry selection.
		m.failed = make(map[string]struct{})
		m.mu.Unlock()
		metrics.CircuitResetsTotal.WithLabelValues(chain).Inc()
		log.Warn().Str("chain", chain).Msg("🚨 All endpoints failed, resetting circuit breaker")
		m.emit(Event{Type: EventCircuitReset, Chain: chain, At: time.Now()})
		m.mu.Lock()
		ep = m.selectLocked(pool)
	}
	if ep == nil {
		m.mu.Unlock()
		return nil, nil, fmt.Errorf("%w for chain %q", ErrNoHealthyEndpoint, chain)
	}

	ep.requestCount++
	ep.lastUsed = time.Now()
	m.counters.Record(ep.URL)
	conn := ep.conn
	m.mu.Unlock()

	metrics.RequestsTotal.WithLabelValues(chain, ep.URL).Inc()

	if conn == nil {
		dialed, err := m.dialer.Dial(ctx, chain, ep.URL)
		if err != nil {
			m.recordFailure(ep, false)
			return nil, nil, fmt.Errorf("dial %s: %w", ep.URL, err)
		}
		m.mu.Lock()
		if ep.conn == nil {
			ep.conn = dialed
		} else {
			// Lost the race against a concurrent dial.
			dialed.Close()
		}
		conn = ep.conn
		m.mu.Unlock()
	}
	return ep, conn, nil
}

// selectLocked filters the pool to healthy, non-failed endpoints with rate
// headroom, then picks by (priority asc, requestCount asc). Priority
// expresses operator preference; requestCount spreads load across equals.
func (m *Manager) selectLocked(pool []*Endpoint) *Endpoint {
	var best *Endpoint
	for _, ep := range pool {
		if !ep.healthy {
			continue
		}
		if _, bad := m.failed[ep.URL]; bad {
			continue
		}
		if !m.counters.Allow(ep.URL, m.capacity(ep)) {
			continue
		}
		if best == nil ||
			ep.Priority < best.Priority ||
			(ep.Priority == best.Priority && ep.requestCount < best.requestCount) {
			best = ep
		}
	}
	return best
}

func (m *Manager) capacity(ep *Endpoint) int {
	if ep.MaxRPS > 0 {
		return ep.MaxRPS
	}
	return m.defaultMaxRPS
}

// recordSuccess resets the endpoint's error state after any successful
// operation and clears it from the failed set.
func (m *Manager) recordSuccess(ep *Endpoint) {
	m.mu.Lock()
	wasDown := !ep.healthy
	_, wasFailed := m.failed[ep.URL]
	ep.errorCount = 0
	ep.healthy = true
	delete(m.failed, ep.URL)
	m.mu.Unlock()

	metrics.SetEndpointHealthy(ep.chain, ep.URL, true)
	if wasDown || wasFailed {
		log.Info().Str("chain", ep.chain).Str("url", ep.URL).Msg("✅ Endpoint recovered")
		m.emit(Event{Type: EventEndpointRecovered, Chain: ep.chain, URL: ep.URL, At: time.Now()})
	}
}

// recordFailure bumps the endpoint's error count. Rate-limit failures also
// park the endpoint in the failed set so selection skips it until a success
// or health-check pass clears it.
func (m *Manager) recordFailure(ep *Endpoint, rateLimited bool) {
	m.mu.Lock()
	ep.errorCount++
	if rateLimited {
		m.failed[ep.URL] = struct{}{}
	}
	m.mu.Unlock()
	if rateLimited {
		metrics.RateLimitHitsTotal.WithLabelValues(ep.chain, ep.URL).Inc()
	}
}

// applyProbe feeds a health-check result back into the pool. Demotion needs
// unhealthyAfter consecutive failures; a single success restores everything.
func (m *Manager) applyProbe(ep *Endpoint, probeErr error) {
	if probeErr == nil {
		m.recordSuccess(ep)
		return
	}

	m.mu.Lock()
	ep.errorCount++
	demoted := ep.healthy && ep.errorCount >= unhealthyAfter
	if demoted {
		ep.healthy = false
		m.failed[ep.URL] = struct{}{}
	}
	count := ep.errorCount
	m.mu.Unlock()

	if demoted {
		metrics.SetEndpointHealthy(ep.chain, ep.URL, false)
		log.Warn().Str("chain", ep.chain).Str("url", ep.URL).Int("error_count", count).Msg("💔 Endpoint marked unhealthy")
		m.emit(Event{Type: EventEndpointDown, Chain: ep.chain, URL: ep.URL, Detail: probeErr.Error(), At: time.Now()})
	}
}

// representative picks the endpoint a health check should probe for a chain:
// the first currently-healthy one, else the first configured.
func (m *Manager) representative(chain string) *Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool := m.pools[chain]
	if len(pool) == 0 {
		return nil
	}
	for _, ep := range pool {
		if ep.healthy {
			return ep
		}
	}
	return pool[0]
}

// ensureConn dials the endpoint if it has no live connection, returning the
// handle either way.
func (m *Manager) ensureConn(ctx context.Context, ep *Endpoint) (Conn, error) {
	m.mu.Lock()
	conn := ep.conn
	m.mu.Unlock()
	if conn != nil {
		return conn, nil
	}
	dialed, err := m.dialer.Dial(ctx, ep.chain, ep.URL)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if ep.conn == nil {
		ep.conn = dialed
	} else {
		dialed.Close()
	}
	conn = ep.conn
	m.mu.Unlock()
	return conn, nil
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	fn := m.onEvent
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
