// Package postgres stores dashboard snapshots in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/internal/utils"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/and161185/linstor-dashboard/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS dashboard_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	snapshot_id TEXT        NOT NULL,
	sequence    BIGINT      NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	payload     JSONB       NOT NULL
)`
	maxSequenceSQL = `SELECT COALESCE(MAX(sequence), 0) FROM dashboard_snapshots`
	insertSQL      = `INSERT INTO dashboard_snapshots (snapshot_id, sequence, fetched_at, payload) VALUES ($1, $2, $3, $4)`
	pruneSQL       = `DELETE FROM dashboard_snapshots
WHERE id NOT IN (SELECT id FROM dashboard_snapshots ORDER BY id DESC LIMIT $1)`
	latestSQL  = `SELECT payload FROM dashboard_snapshots ORDER BY id DESC LIMIT 1`
	historySQL = `SELECT payload FROM dashboard_snapshots ORDER BY id DESC LIMIT $1`
)

// DefaultHistoryLimit applies when the configured limit is not positive.
const DefaultHistoryLimit = 100

type PostgresStorage struct {
	db     DB
	limit  int
	guard  storage.SequenceGuard
	logger *zap.SugaredLogger
}

// NewPostgresStorage connects to databaseDsn and prepares the snapshot table.
func NewPostgresStorage(ctx context.Context, databaseDsn string, historyLimit int, logger *zap.SugaredLogger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseDsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store, err := NewWithDB(ctx, pool, historyLimit, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB prepares the snapshot table on an existing connection.
func NewWithDB(ctx context.Context, db DB, historyLimit int, logger *zap.SugaredLogger) (*PostgresStorage, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	store := &PostgresStorage{db: db, limit: historyLimit, logger: logger}

	err := utils.WithRetry(ctx, func() error {
		_, err := db.Exec(ctx, createTableSQL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}

	var last int64
	err = utils.WithRetry(ctx, func() error {
		return db.QueryRow(ctx, maxSequenceSQL).Scan(&last)
	})
	if err != nil {
		return nil, fmt.Errorf("read last sequence: %w", err)
	}
	if last > 0 {
		store.guard.Observe(uint64(last))
	}

	return store, nil
}

func (store *PostgresStorage) Apply(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("apply: nil snapshot")
	}
	if err := store.guard.Admit(snap.Sequence); err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = utils.WithRetry(ctx, func() error {
		_, err := store.db.Exec(ctx, insertSQL, snap.ID, int64(snap.Sequence), snap.FetchedAt, payload)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	err = utils.WithRetry(ctx, func() error {
		_, err := store.db.Exec(ctx, pruneSQL, store.limit)
		return err
	})
	if err != nil {
		// history stays oversized until the next successful prune
		store.logger.Warnw("failed to prune snapshot history", "error", err)
	}
	return nil
}

func (store *PostgresStorage) Latest(ctx context.Context) (*model.Snapshot, error) {
	var payload []byte
	err := utils.WithRetry(ctx, func() error {
		return store.db.QueryRow(ctx, latestSQL).Scan(&payload)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select latest snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (store *PostgresStorage) History(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 || limit > store.limit {
		limit = store.limit
	}

	var result []model.Snapshot
	err := utils.WithRetry(ctx, func() error {
		rows, err := store.db.Query(ctx, historySQL, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return err
			}
			var snap model.Snapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return fmt.Errorf("unmarshal snapshot: %w", err)
			}
			result = append(result, snap)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select snapshot history: %w", err)
	}
	if result == nil {
		result = []model.Snapshot{}
	}
	return result, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

// LastSequence returns the highest sequence stored.
func (store *PostgresStorage) LastSequence() uint64 {
	return store.guard.Last()
}

// Close releases the connection pool.
func (store *PostgresStorage) Close() {
	store.db.Close()
}
