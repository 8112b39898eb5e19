package rpcpool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/metrics"
)

// ProbeRecorder receives every health-check outcome. The storage layer
// implements it to keep probe history for the status API.
type ProbeRecorder interface {
	RecordProbe(chain, url string, healthy bool, latency time.Duration, probeErr error)
}

// HealthMonitor probes one representative endpoint per chain on a timer,
// independent of request traffic. Probe failures never surface to callers;
// they only mutate pool health state (with hysteresis, via Manager.applyProbe).
type HealthMonitor struct {
	manager  *Manager
	interval time.Duration
	recorder ProbeRecorder

	probeTimeout time.Duration
	chainPause   time.Duration

	mu      sync.Mutex
	lastRun time.Time
}

// NewHealthMonitor creates a monitor firing every interval (120s in the
// default configuration).
func NewHealthMonitor(m *Manager, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &HealthMonitor{
		manager:      m,
		interval:     interval,
		probeTimeout: 10 * time.Second,
		chainPause:   time.Second,
	}
}

// SetRecorder wires an optional probe-history sink.
func (h *HealthMonitor) SetRecorder(r ProbeRecorder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorder = r
}

// Start launches the background check loop until ctx is cancelled.
func (h *HealthMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Health monitor stopping")
				return
			case <-ticker.C:
				h.RunOnce(ctx)
			}
		}
	}()
	log.Info().Dur("interval", h.interval).Msg("💓 Health monitor started")
}

// RunOnce checks every chain sequentially with a short pause between chains
// to spread probe load. Calls within half the interval of the previous run
// are debounced to no-ops.
func (h *HealthMonitor) RunOnce(ctx context.Context) {
	h.mu.Lock()
	if time.Since(h.lastRun) < h.interval/2 {
		h.mu.Unlock()
		return
	}
	h.lastRun = time.Now()
	recorder := h.recorder
	h.mu.Unlock()

	chains := h.manager.Chains()
	for i, chain := range chains {
		if ctx.Err() != nil {
			return
		}
		h.checkChain(ctx, chain, recorder)
		if i < len(chains)-1 && h.chainPause > 0 {
			if err := sleepCtx(ctx, h.chainPause); err != nil {
				return
			}
		}
	}
}

func (h *HealthMonitor) checkChain(ctx context.Context, chain string, recorder ProbeRecorder) {
	ep := h.manager.representative(chain)
	if ep == nil {
		return
	}

	start := time.Now()
	err := h.probe(ctx, ep)
	latency := time.Since(start)
	metrics.HealthCheckDuration.WithLabelValues(chain).Observe(latency.Seconds())

	if err != nil {
		metrics.HealthCheckFailuresTotal.WithLabelValues(chain, ep.URL).Inc()
		log.Debug().Str("chain", chain).Str("url", ep.URL).Err(err).Msg("Health check failed")
	}
	h.manager.applyProbe(ep, err)

	if recorder != nil {
		recorder.RecordProbe(chain, ep.URL, err == nil, latency, err)
	}
}

// probe issues the liveness call under its own deadline so a hung endpoint
// cannot stall the whole cycle.
func (h *HealthMonitor) probe(ctx context.Context, ep *Endpoint) error {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	conn, err := h.manager.ensureConn(probeCtx, ep)
	if err != nil {
		return err
	}
	return conn.Ping(probeCtx)
}
