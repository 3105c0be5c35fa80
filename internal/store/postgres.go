package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fliplens/appraise-cli/internal/db"
	"github.com/fliplens/appraise-cli/internal/model"
)

// PostgresStore implements Store using pgxpool, for deployments where several
// scanners share one snapshot cache.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests use this with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS price_snapshots (
	key        TEXT PRIMARY KEY,
	truth      JSONB NOT NULL,
	built_at   TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	condition   TEXT NOT NULL,
	item_label  TEXT NOT NULL,
	verdict     TEXT NOT NULL,
	buy_price   DOUBLE PRECISION NOT NULL,
	profit      DOUBLE PRECISION,
	from_cache  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_snapshots_expires_at ON price_snapshots(expires_at);
CREATE INDEX IF NOT EXISTS idx_scans_category ON scans(category);
CREATE INDEX IF NOT EXISTS idx_scans_verdict ON scans(verdict);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, key model.SnapshotKey) (*model.PriceTruth, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT truth FROM price_snapshots WHERE key = $1 AND expires_at > now()`,
		key.String(),
	)

	var truthJSON []byte
	err := row.Scan(&truthJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get snapshot")
	}

	var pt model.PriceTruth
	if err := json.Unmarshal(truthJSON, &pt); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
	}
	return &pt, nil
}

func (s *PostgresStore) PutSnapshot(ctx context.Context, key model.SnapshotKey, pt model.PriceTruth) error {
	truthJSON, err := json.Marshal(pt)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO price_snapshots (key, truth, built_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET truth = EXCLUDED.truth, built_at = EXCLUDED.built_at, expires_at = EXCLUDED.expires_at`,
		key.String(), truthJSON, pt.BuiltAt.UTC(), pt.BuiltAt.Add(pt.TTL).UTC(),
	)
	return eris.Wrap(err, "postgres: put snapshot")
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_snapshots WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge expired snapshots")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) PurgeAll(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_snapshots`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge snapshots")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) SaveScan(ctx context.Context, scan model.ScanRecord) error {
	scan = withScanDefaults(scan)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scans (id, category, fingerprint, condition, item_label, verdict, buy_price, profit, from_cache, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		scan.ID, string(scan.Category), scan.Fingerprint, scan.Condition, scan.ItemLabel,
		string(scan.Verdict), scan.BuyPrice, scan.Profit, scan.FromCache, scan.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save scan")
}

// SaveScans bulk-inserts via COPY; batch mode writes its whole history in
// one round trip.
func (s *PostgresStore) SaveScans(ctx context.Context, scans []model.ScanRecord) error {
	if len(scans) == 0 {
		return nil
	}

	columns := []string{"id", "category", "fingerprint", "condition", "item_label", "verdict", "buy_price", "profit", "from_cache", "created_at"}
	rows := make([][]any, 0, len(scans))
	for _, scan := range scans {
		scan = withScanDefaults(scan)
		var profit any
		if scan.Profit != nil {
			profit = *scan.Profit
		}
		rows = append(rows, []any{
			scan.ID, string(scan.Category), scan.Fingerprint, scan.Condition, scan.ItemLabel,
			string(scan.Verdict), scan.BuyPrice, profit, scan.FromCache, scan.CreatedAt.UTC(),
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "scans", columns, rows)
	return err
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, category, fingerprint, condition, item_label, verdict, buy_price, profit, from_cache, created_at
	          FROM scans WHERE 1=1`
	var args []any

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += ` AND category = $1`
	}
	if filter.Verdict != "" {
		args = append(args, string(filter.Verdict))
		query += placeholderClause(` AND verdict = `, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += placeholderClause(` LIMIT `, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += placeholderClause(` OFFSET `, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []model.ScanRecord
	for rows.Next() {
		var sc model.ScanRecord
		if err := rows.Scan(&sc.ID, &sc.Category, &sc.Fingerprint, &sc.Condition, &sc.ItemLabel,
			&sc.Verdict, &sc.BuyPrice, &sc.Profit, &sc.FromCache, &sc.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		scans = append(scans, sc)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (CacheStats, error) {
	var st CacheStats

	row := s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*),
		   COALESCE(SUM(CASE WHEN expires_at <= now() THEN 1 ELSE 0 END), 0),
		   MIN(built_at)
		 FROM price_snapshots`,
	)
	var oldest *time.Time
	if err := row.Scan(&st.Snapshots, &st.Expired, &oldest); err != nil {
		return CacheStats{}, eris.Wrap(err, "postgres: snapshot stats")
	}
	if oldest != nil {
		st.OldestAt = *oldest
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scans`).Scan(&st.Scans); err != nil {
		return CacheStats{}, eris.Wrap(err, "postgres: scan stats")
	}
	return st, nil
}

func withScanDefaults(scan model.ScanRecord) model.ScanRecord {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	return scan
}

func placeholderClause(prefix string, n int) string {
	return fmt.Sprintf("%s$%d", prefix, n)
}
