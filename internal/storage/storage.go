package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/web3guy0/chainpool/internal/rpcpool"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STORAGE - Probe history and endpoint stats persistence
// ═══════════════════════════════════════════════════════════════════════════════
//
// Observability history only: pool state itself is always rebuilt from
// configuration at startup, never from this store.
//
// ═══════════════════════════════════════════════════════════════════════════════

type Store struct {
	db *gorm.DB
}

// Models

// ProbeResult is one health-check outcome for one endpoint.
type ProbeResult struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Chain     string `gorm:"index"`
	URL       string `gorm:"index"`
	Healthy   bool
	LatencyMS int64
	Error     string
	CreatedAt time.Time `gorm:"index"`
}

// EndpointSnapshot is a periodic copy of one endpoint's counters.
type EndpointSnapshot struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Chain        string `gorm:"index"`
	URL          string
	Healthy      bool
	Failed       bool
	RequestCount int64
	ErrorCount   int
	CreatedAt    time.Time `gorm:"index"`
}

// New opens the store. A postgres:// DSN selects PostgreSQL, anything else
// is treated as an SQLite path.
func New(dbPath string) (*Store, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("💾 Store connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("💾 Store initialized (SQLite)")
	}

	if err := db.AutoMigrate(&ProbeResult{}, &EndpointSnapshot{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// RecordProbe implements rpcpool.ProbeRecorder.
func (s *Store) RecordProbe(chain, url string, healthy bool, latency time.Duration, probeErr error) {
	rec := ProbeResult{
		Chain:     chain,
		URL:       url,
		Healthy:   healthy,
		LatencyMS: latency.Milliseconds(),
	}
	if probeErr != nil {
		rec.Error = probeErr.Error()
	}
	if err := s.db.Create(&rec).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to record probe result")
	}
}

// SnapshotStatus persists one row per endpoint from a pool snapshot.
func (s *Store) SnapshotStatus(st rpcpool.Status) error {
	var rows []EndpointSnapshot
	for chain, cs := range st.Chains {
		for _, ep := range cs.Endpoints {
			rows = append(rows, EndpointSnapshot{
				Chain:        chain,
				URL:          ep.URL,
				Healthy:      ep.Healthy,
				Failed:       ep.Failed,
				RequestCount: ep.RequestCount,
				ErrorCount:   ep.ErrorCount,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.Create(&rows).Error
}

// RecentProbes returns the newest probe results for a chain.
func (s *Store) RecentProbes(chain string, limit int) ([]ProbeResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []ProbeResult
	err := s.db.
		Where("chain = ?", chain).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// StartSnapshotLoop copies pool stats into the store on a timer until ctx
// is cancelled.
func (s *Store) StartSnapshotLoop(ctx context.Context, interval time.Duration, status func() rpcpool.Status) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SnapshotStatus(status()); err != nil {
					log.Warn().Err(err).Msg("Failed to snapshot endpoint stats")
				}
			}
		}
	}()
}
