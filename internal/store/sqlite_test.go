package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliplens/appraise-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testKey() model.SnapshotKey {
	return model.SnapshotKey{Category: model.CategoryCard, Fingerprint: "abcd1234abcd1234", Condition: "raw"}
}

func testTruth(builtAt time.Time, ttl time.Duration) model.PriceTruth {
	anchor := 43.50
	return model.PriceTruth{
		Source:     model.PriceSourceSoldComps,
		Anchor:     &anchor,
		Low:        40,
		High:       48,
		CompsUsed:  4,
		SampleSize: 5,
		Confidence: model.PriceHigh,
		BuiltAt:    builtAt,
		TTL:        ttl,
	}
}

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	key := testKey()

	miss, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	want := testTruth(time.Now().UTC(), 6*time.Hour)
	require.NoError(t, s.PutSnapshot(ctx, key, want))

	got, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.PriceSourceSoldComps, got.Source)
	require.NotNil(t, got.Anchor)
	assert.InDelta(t, 43.50, *got.Anchor, 0.001)
	assert.Equal(t, 4, got.CompsUsed)
	assert.Equal(t, 5, got.SampleSize)
}

func TestSQLite_ExpiredSnapshotIsMiss(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	key := testKey()

	stale := testTruth(time.Now().UTC().Add(-12*time.Hour), 6*time.Hour)
	require.NoError(t, s.PutSnapshot(ctx, key, stale))

	got, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_PutSnapshotReplacesExisting(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	key := testKey()

	first := testTruth(time.Now().UTC(), 6*time.Hour)
	require.NoError(t, s.PutSnapshot(ctx, key, first))

	second := first
	newAnchor := 50.0
	second.Anchor = &newAnchor
	require.NoError(t, s.PutSnapshot(ctx, key, second))

	got, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 50.0, *got.Anchor, 0.001)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Snapshots)
}

func TestSQLite_StatsReportsOldestSnapshot(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, empty.OldestAt.IsZero())

	older := time.Now().UTC().Add(-3 * time.Hour)
	newer := time.Now().UTC()

	olderKey := testKey()
	newerKey := olderKey
	newerKey.Fingerprint = "ffff0000ffff0000"

	require.NoError(t, s.PutSnapshot(ctx, olderKey, testTruth(older, 48*time.Hour)))
	require.NoError(t, s.PutSnapshot(ctx, newerKey, testTruth(newer, 48*time.Hour)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Snapshots)
	require.False(t, stats.OldestAt.IsZero())
	assert.WithinDuration(t, older, stats.OldestAt, time.Second)
}

func TestSQLite_KeysAreIsolatedByCondition(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	raw := testKey()
	graded := raw
	graded.Condition = "graded"

	require.NoError(t, s.PutSnapshot(ctx, raw, testTruth(time.Now().UTC(), 6*time.Hour)))

	got, err := s.GetSnapshot(ctx, graded)
	require.NoError(t, err)
	assert.Nil(t, got, "graded condition must not hit the raw snapshot")
}

func TestSQLite_PurgeExpired(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	fresh := testKey()
	staleKey := fresh
	staleKey.Fingerprint = "ffff0000ffff0000"

	require.NoError(t, s.PutSnapshot(ctx, fresh, testTruth(time.Now().UTC(), 6*time.Hour)))
	require.NoError(t, s.PutSnapshot(ctx, staleKey, testTruth(time.Now().UTC().Add(-12*time.Hour), 6*time.Hour)))

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetSnapshot(ctx, fresh)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_PurgeAll(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutSnapshot(ctx, testKey(), testTruth(time.Now().UTC(), 6*time.Hour)))

	n, err := s.PurgeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Snapshots)
}

func TestSQLite_ScanHistory(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	profit := 17.84
	require.NoError(t, s.SaveScan(ctx, model.ScanRecord{
		Category:    model.CategoryCard,
		Fingerprint: "abcd1234",
		Condition:   "raw",
		ItemLabel:   "2019 Prizm Basketball #248",
		Verdict:     model.VerdictFlip,
		BuyPrice:    20,
		Profit:      &profit,
	}))
	require.NoError(t, s.SaveScan(ctx, model.ScanRecord{
		Category:    model.CategoryWatch,
		Fingerprint: "eeee1111",
		Condition:   "used",
		ItemLabel:   "Invicta Pro Diver",
		Verdict:     model.VerdictNotEnoughInfo,
		BuyPrice:    40,
	}))

	all, err := s.ListScans(ctx, ScanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cards, err := s.ListScans(ctx, ScanFilter{Category: model.CategoryCard})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, model.VerdictFlip, cards[0].Verdict)
	require.NotNil(t, cards[0].Profit)
	assert.InDelta(t, 17.84, *cards[0].Profit, 0.001)
	assert.NotEmpty(t, cards[0].ID)

	flips, err := s.ListScans(ctx, ScanFilter{Verdict: model.VerdictFlip})
	require.NoError(t, err)
	assert.Len(t, flips, 1)
}

func TestSQLite_SaveScansBatch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	scans := []model.ScanRecord{
		{Category: model.CategoryCard, Fingerprint: "a", Condition: "raw", ItemLabel: "one", Verdict: model.VerdictSkip, BuyPrice: 5},
		{Category: model.CategoryCard, Fingerprint: "b", Condition: "raw", ItemLabel: "two", Verdict: model.VerdictFlip, BuyPrice: 8},
	}
	require.NoError(t, s.SaveScans(ctx, scans))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scans)
}
