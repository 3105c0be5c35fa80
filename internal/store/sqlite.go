package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fliplens/appraise-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. This is the default
// backend: a single local file, no server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS price_snapshots (
	key        TEXT PRIMARY KEY,
	truth      TEXT NOT NULL,
	built_at   DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	condition   TEXT NOT NULL,
	item_label  TEXT NOT NULL,
	verdict     TEXT NOT NULL,
	buy_price   REAL NOT NULL,
	profit      REAL,
	from_cache  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_snapshots_expires_at ON price_snapshots(expires_at);
CREATE INDEX IF NOT EXISTS idx_scans_category ON scans(category);
CREATE INDEX IF NOT EXISTS idx_scans_verdict ON scans(verdict);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, key model.SnapshotKey) (*model.PriceTruth, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT truth FROM price_snapshots WHERE key = ? AND expires_at > ?`,
		key.String(), time.Now().UTC(),
	)

	var truthJSON string
	err := row.Scan(&truthJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get snapshot")
	}

	var pt model.PriceTruth
	if err := json.Unmarshal([]byte(truthJSON), &pt); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
	}
	return &pt, nil
}

func (s *SQLiteStore) PutSnapshot(ctx context.Context, key model.SnapshotKey, pt model.PriceTruth) error {
	truthJSON, err := json.Marshal(pt)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO price_snapshots (key, truth, built_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET truth = excluded.truth, built_at = excluded.built_at, expires_at = excluded.expires_at`,
		key.String(), string(truthJSON), pt.BuiltAt.UTC(), pt.BuiltAt.Add(pt.TTL).UTC(),
	)
	return eris.Wrap(err, "sqlite: put snapshot")
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM price_snapshots WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired snapshots")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) PurgeAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_snapshots`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge snapshots")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) SaveScan(ctx context.Context, scan model.ScanRecord) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, category, fingerprint, condition, item_label, verdict, buy_price, profit, from_cache, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, string(scan.Category), scan.Fingerprint, scan.Condition, scan.ItemLabel,
		string(scan.Verdict), scan.BuyPrice, nullFloat(scan.Profit), scan.FromCache, scan.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save scan")
}

func (s *SQLiteStore) SaveScans(ctx context.Context, scans []model.ScanRecord) error {
	for _, scan := range scans {
		if err := s.SaveScan(ctx, scan); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, category, fingerprint, condition, item_label, verdict, buy_price, profit, from_cache, created_at
	          FROM scans WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Verdict != "" {
		query += ` AND verdict = ?`
		args = append(args, string(filter.Verdict))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var scans []model.ScanRecord
	for rows.Next() {
		var sc model.ScanRecord
		var profit sql.NullFloat64
		if err := rows.Scan(&sc.ID, &sc.Category, &sc.Fingerprint, &sc.Condition, &sc.ItemLabel,
			&sc.Verdict, &sc.BuyPrice, &profit, &sc.FromCache, &sc.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		if profit.Valid {
			sc.Profit = &profit.Float64
		}
		scans = append(scans, sc)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (CacheStats, error) {
	var st CacheStats
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx,
		`SELECT
		   COUNT(*),
		   COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		 FROM price_snapshots`, now,
	)
	if err := row.Scan(&st.Snapshots, &st.Expired); err != nil {
		return CacheStats{}, eris.Wrap(err, "sqlite: snapshot stats")
	}

	// MIN(built_at) strips the column's declared type and the driver hands
	// back a bare string; selecting the column keeps it a time.
	var oldest time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT built_at FROM price_snapshots ORDER BY built_at LIMIT 1`,
	).Scan(&oldest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return CacheStats{}, eris.Wrap(err, "sqlite: oldest snapshot")
	default:
		st.OldestAt = oldest.UTC()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&st.Scans); err != nil {
		return CacheStats{}, eris.Wrap(err, "sqlite: scan stats")
	}
	return st, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
