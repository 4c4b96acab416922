package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/partscope/partscope/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS result_cache (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS identify_cache (
	id         TEXT PRIMARY KEY,
	image_id   TEXT NOT NULL UNIQUE,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS supply_cache (
	id          TEXT PRIMARY KEY,
	product_key TEXT NOT NULL UNIQUE,
	result      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_cache_key ON result_cache(cache_key);
CREATE INDEX IF NOT EXISTS idx_supply_cache_product_key ON supply_cache(product_key);
CREATE INDEX IF NOT EXISTS idx_supply_cache_expires_at ON supply_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_result_cache_expires_at ON result_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_identify_cache_image_id ON identify_cache(image_id);
CREATE INDEX IF NOT EXISTS idx_identify_cache_expires_at ON identify_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetResult(ctx context.Context, key string) (*model.ComponentSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM result_cache
		 WHERE cache_key = ? AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		key,
	)

	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get result")
	}

	var set model.ComponentSet
	if err := json.Unmarshal([]byte(resultJSON), &set); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &set, nil
}

func (s *SQLiteStore) SetResult(ctx context.Context, key string, set model.ComponentSet, ttl time.Duration) error {
	resultJSON, err := json.Marshal(set)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO result_cache (id, cache_key, result, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, string(resultJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set result")
}

func (s *SQLiteStore) GetIdentification(ctx context.Context, imageID string) (*model.Identification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM identify_cache
		 WHERE image_id = ? AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		imageID,
	)

	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get identification")
	}

	var ident model.Identification
	if err := json.Unmarshal([]byte(resultJSON), &ident); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal identification")
	}
	return &ident, nil
}

func (s *SQLiteStore) SetIdentification(ctx context.Context, imageID string, ident model.Identification, ttl time.Duration) error {
	resultJSON, err := json.Marshal(ident)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal identification")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO identify_cache (id, image_id, result, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(image_id) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), imageID, string(resultJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set identification")
}

func (s *SQLiteStore) GetSupplyChain(ctx context.Context, productKey string) (*model.SupplyChainReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM supply_cache
		 WHERE product_key = ? AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		productKey,
	)

	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get supply chain")
	}

	var report model.SupplyChainReport
	if err := json.Unmarshal([]byte(resultJSON), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal supply chain")
	}
	return &report, nil
}

func (s *SQLiteStore) SetSupplyChain(ctx context.Context, productKey string, report model.SupplyChainReport, ttl time.Duration) error {
	resultJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal supply chain")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO supply_cache (id, product_key, result, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(product_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), productKey, string(resultJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set supply chain")
}

func (s *SQLiteStore) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM result_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge results")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM identify_cache`); err != nil {
		return int(n), eris.Wrap(err, "sqlite: purge identifications")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM supply_cache`); err != nil {
		return int(n), eris.Wrap(err, "sqlite: purge supply chains")
	}
	return int(n), nil
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM result_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CountResults(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM result_cache WHERE expires_at > datetime('now')`,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count results")
}
