package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/partscope/partscope/internal/db"
	"github.com/partscope/partscope/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache paths.
var preparedStatements = map[string]string{
	"get_result":         `SELECT result FROM result_cache WHERE cache_key = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
	"set_result":         `INSERT INTO result_cache (id, cache_key, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (cache_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
	"get_identification": `SELECT result FROM identify_cache WHERE image_id = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
	"set_identification": `INSERT INTO identify_cache (id, image_id, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (image_id) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
	"get_supply_chain":   `SELECT result FROM supply_cache WHERE product_key = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
	"set_supply_chain":   `INSERT INTO supply_cache (id, product_key, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (product_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
	"delete_expired":     `DELETE FROM result_cache WHERE expires_at <= now()`,
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

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS result_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	cache_key  TEXT NOT NULL UNIQUE,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS identify_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	image_id   TEXT NOT NULL UNIQUE,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS supply_cache (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_key TEXT NOT NULL UNIQUE,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_cache_key ON result_cache(cache_key);
CREATE INDEX IF NOT EXISTS idx_supply_cache_product_key ON supply_cache(product_key);
CREATE INDEX IF NOT EXISTS idx_supply_cache_expires_at ON supply_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_result_cache_expires_at ON result_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_identify_cache_image_id ON identify_cache(image_id);
CREATE INDEX IF NOT EXISTS idx_identify_cache_expires_at ON identify_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

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

func (s *PostgresStore) GetResult(ctx context.Context, key string) (*model.ComponentSet, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM result_cache WHERE cache_key = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
		key,
	).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get result")
	}

	var set model.ComponentSet
	if err := json.Unmarshal(resultJSON, &set); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &set, nil
}

func (s *PostgresStore) SetResult(ctx context.Context, key string, set model.ComponentSet, ttl time.Duration) error {
	resultJSON, err := json.Marshal(set)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO result_cache (id, cache_key, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, resultJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set result")
}

func (s *PostgresStore) GetIdentification(ctx context.Context, imageID string) (*model.Identification, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM identify_cache WHERE image_id = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
		imageID,
	).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get identification")
	}

	var ident model.Identification
	if err := json.Unmarshal(resultJSON, &ident); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal identification")
	}
	return &ident, nil
}

func (s *PostgresStore) SetIdentification(ctx context.Context, imageID string, ident model.Identification, ttl time.Duration) error {
	resultJSON, err := json.Marshal(ident)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal identification")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO identify_cache (id, image_id, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (image_id) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), imageID, resultJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set identification")
}

func (s *PostgresStore) GetSupplyChain(ctx context.Context, productKey string) (*model.SupplyChainReport, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM supply_cache WHERE product_key = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
		productKey,
	).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get supply chain")
	}

	var report model.SupplyChainReport
	if err := json.Unmarshal(resultJSON, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal supply chain")
	}
	return &report, nil
}

func (s *PostgresStore) SetSupplyChain(ctx context.Context, productKey string, report model.SupplyChainReport, ttl time.Duration) error {
	resultJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal supply chain")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO supply_cache (id, product_key, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (product_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), productKey, resultJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set supply chain")
}

func (s *PostgresStore) Purge(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM result_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge results")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM identify_cache`); err != nil {
		return int(tag.RowsAffected()), eris.Wrap(err, "postgres: purge identifications")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM supply_cache`); err != nil {
		return int(tag.RowsAffected()), eris.Wrap(err, "postgres: purge supply chains")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM result_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CountResults(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM result_cache WHERE expires_at > now()`,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count results")
}
