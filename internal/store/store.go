// Package store persists price snapshots and scan history. Snapshots are a
// cache keyed by identity fingerprint and condition; scan records are an
// append-only audit trail.
package store

import (
	"context"
	"time"

	"github.com/fliplens/appraise-cli/internal/model"
)

// ScanFilter narrows a scan-history listing.
type ScanFilter struct {
	Category model.Category `json:"category,omitempty"`
	Verdict  model.Verdict  `json:"verdict,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// CacheStats summarizes the snapshot cache for the cache status command.
type CacheStats struct {
	Snapshots int       `json:"snapshots"`
	Expired   int       `json:"expired"`
	Scans     int       `json:"scans"`
	OldestAt  time.Time `json:"oldest_at,omitempty"`
}

// Store defines the persistence interface for the appraisal pipeline.
type Store interface {
	// Snapshots. GetSnapshot returns (nil, nil) on a miss or when the
	// stored snapshot has expired.
	GetSnapshot(ctx context.Context, key model.SnapshotKey) (*model.PriceTruth, error)
	PutSnapshot(ctx context.Context, key model.SnapshotKey, pt model.PriceTruth) error
	PurgeExpired(ctx context.Context) (int, error)
	PurgeAll(ctx context.Context) (int, error)

	// Scan history
	SaveScan(ctx context.Context, scan model.ScanRecord) error
	SaveScans(ctx context.Context, scans []model.ScanRecord) error
	ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error)

	Stats(ctx context.Context) (CacheStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
