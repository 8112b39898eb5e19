package rpcpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeRecord struct {
	chain   string
	url     string
	healthy bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []probeRecord
}

func (r *fakeRecorder) RecordProbe(chain, url string, healthy bool, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, probeRecord{chain, url, healthy})
}

// newTestMonitor builds a monitor with no inter-chain pause so multi-chain
// tests run instantly.
func newTestMonitor(m *Manager) *HealthMonitor {
	h := NewHealthMonitor(m, time.Hour)
	h.chainPause = 0
	return h
}

// runProbe bypasses the debounce so consecutive cycles can be driven
// directly.
func runProbe(h *HealthMonitor) {
	h.mu.Lock()
	h.lastRun = time.Time{}
	h.mu.Unlock()
	h.RunOnce(context.Background())
}

func TestHealthDemotionNeedsConsecutiveFailures(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
	)
	conns[0].setPingErr(errors.New("boom"))

	var events []Event
	m.SetEventHandler(func(ev Event) { events = append(events, ev) })

	h := newTestMonitor(m)
	ep := m.pools["ethereum"][0]

	for i := 0; i < 4; i++ {
		runProbe(h)
		assert.True(t, ep.healthy, "endpoint must survive %d failures", i+1)
	}
	assert.Empty(t, events)

	// Fifth consecutive failure demotes.
	runProbe(h)
	assert.False(t, ep.healthy)
	assert.Contains(t, m.Status().FailedURLs, "https://a.example")
	require.Len(t, events, 1)
	assert.Equal(t, EventEndpointDown, events[0].Type)
	assert.Equal(t, "https://a.example", events[0].URL)
}

func TestHealthSingleBlipKeepsEndpoint(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
	)
	h := newTestMonitor(m)
	ep := m.pools["ethereum"][0]

	conns[0].setPingErr(errors.New("boom"))
	runProbe(h)
	assert.True(t, ep.healthy)
	assert.Equal(t, 1, ep.errorCount)

	conns[0].setPingErr(nil)
	runProbe(h)
	assert.True(t, ep.healthy)
	assert.Equal(t, 0, ep.errorCount, "a passing probe resets the failure streak")
}

func TestHealthRecovery(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
	)
	h := newTestMonitor(m)
	ep := m.pools["ethereum"][0]

	conns[0].setPingErr(errors.New("boom"))
	for i := 0; i < 5; i++ {
		runProbe(h)
	}
	require.False(t, ep.healthy)

	var events []Event
	m.SetEventHandler(func(ev Event) { events = append(events, ev) })

	conns[0].setPingErr(nil)
	runProbe(h)
	assert.True(t, ep.healthy)
	assert.Equal(t, 0, ep.errorCount)
	assert.Empty(t, m.Status().FailedURLs)
	require.Len(t, events, 1)
	assert.Equal(t, EventEndpointRecovered, events[0].Type)
}

func TestHealthDebounce(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
	)
	h := newTestMonitor(m)

	h.RunOnce(context.Background())
	h.RunOnce(context.Background())
	assert.Equal(t, 1, conns[0].pingCount(), "back-to-back runs within half the interval collapse to one")
}

func TestHealthProbesRepresentativeEndpoint(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
		EndpointConfig{URL: "https://b.example", Priority: 2},
	)
	m.pools["ethereum"][0].healthy = false

	h := newTestMonitor(m)
	runProbe(h)

	assert.Zero(t, conns[0].pingCount())
	assert.Equal(t, 1, conns[1].pingCount(), "probe must target the first healthy endpoint")
}

func TestHealthProbesFirstWhenAllDown(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
		EndpointConfig{URL: "https://b.example", Priority: 2},
	)
	m.pools["ethereum"][0].healthy = false
	m.pools["ethereum"][1].healthy = false

	h := newTestMonitor(m)
	runProbe(h)

	assert.Equal(t, 1, conns[0].pingCount(), "a fully-down chain still gets probed so it can recover")
}

func TestHealthCoversEveryChain(t *testing.T) {
	m := New(&fakeDialer{}, 10)
	m.AddChain("ethereum", []EndpointConfig{{URL: "https://eth.example", Priority: 1}})
	m.AddChain("solana", []EndpointConfig{{URL: "https://sol.example", Priority: 1}})
	ethConn, solConn := &fakeConn{}, &fakeConn{}
	m.pools["ethereum"][0].conn = ethConn
	m.pools["solana"][0].conn = solConn

	rec := &fakeRecorder{}
	h := newTestMonitor(m)
	h.SetRecorder(rec)
	runProbe(h)

	assert.Equal(t, 1, ethConn.pingCount())
	assert.Equal(t, 1, solConn.pingCount())
	require.Len(t, rec.records, 2)
	for _, r := range rec.records {
		assert.True(t, r.healthy)
	}
}

func TestHealthRecorderSeesFailures(t *testing.T) {
	m, conns := newTestManager("ethereum",
		EndpointConfig{URL: "https://a.example", Priority: 1},
	)
	conns[0].setPingErr(errors.New("boom"))

	rec := &fakeRecorder{}
	h := newTestMonitor(m)
	h.SetRecorder(rec)
	runProbe(h)

	require.Len(t, rec.records, 1)
	assert.Equal(t, probeRecord{"ethereum", "https://a.example", false}, rec.records[0])
}

func TestHealthDialsDisconnectedEndpoint(t *testing.T) {
	dialer := &fakeDialer{}
	m := New(dialer, 10)
	m.AddChain("ethereum", []EndpointConfig{{URL: "https://a.example", Priority: 1}})

	h := newTestMonitor(m)
	runProbe(h)

	assert.Equal(t, 1, dialer.dialCount(), "probe must establish the missing connection")
	assert.NotNil(t, m.pools["ethereum"][0].conn)
}
