// Package sqlite implements storage.Store on an embedded SQLite database for
// single-node deployments and local development.
//
// Connections come from a zombiezen sqlitex.Pool. Every connection is
// prepared with WAL journaling, a busy timeout and foreign key enforcement,
// then the schema is applied idempotently. Amounts are stored as integer
// cents so SUM stays exact; timestamps are fixed-width UTC text so they sort
// lexically.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/hongminglow/debt-ledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS debts (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
	creditor_id TEXT NOT NULL REFERENCES users(id),
	debtor_id TEXT NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid')),
	version INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS debts_creditor_idx ON debts (creditor_id, status);
CREATE INDEX IF NOT EXISTS debts_debtor_idx ON debts (debtor_id, status);
`

// Config holds the parameters for opening the store.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string
	// PoolSize defaults to 4.
	PoolSize int
	Logger   logrus.FieldLogger
}

// Store provides SQLite-backed persistence for users and debts.
type Store struct {
	pool   *sqlitex.Pool
	logger logrus.FieldLogger
	path   string
	now    func() time.Time
}

// Open creates the connection pool. Connections are prepared lazily on first
// use, so schema errors surface from the first query; Open pings once to
// report them early.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite store: opening %s: %w", cfg.Path, err)
	}

	s := &Store{pool: pool, logger: logger, path: cfg.Path, now: time.Now}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite store: preparing %s: %w", cfg.Path, err)
	}
	pool.Put(conn)

	logger.WithFields(logrus.Fields{"path": cfg.Path, "pool_size": poolSize}).Info("sqlite store opened")
	return s, nil
}

// Close closes all connections, waiting for borrowed ones to be returned.
func (s *Store) Close() {
	if err := s.pool.Close(); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Error("sqlite store close failed")
		return
	}
	s.logger.WithField("path", s.path).Info("sqlite store closed")
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite store: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlite store: apply schema: %w", err)
	}
	return nil
}

func (s *Store) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: take: %w", err)
	}
	return conn, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite store: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// translate maps constraint violations onto storage sentinels.
func translate(err error) error {
	switch sqlite.ErrCode(err) {
	case sqlite.ResultConstraintUnique, sqlite.ResultConstraintPrimaryKey:
		return storage.ErrAlreadyExists
	case sqlite.ResultConstraintForeignKey:
		return fmt.Errorf("%w: participant", storage.ErrNotFound)
	}
	return err
}
