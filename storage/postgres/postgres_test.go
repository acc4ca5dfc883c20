package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/and161185/linstor-dashboard/storage/postgres/mocks"
	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return errors.New("scan: column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = values[i].(int64)
		case *[]byte:
			*p = values[i].([]byte)
		default:
			return errors.New("scan: unsupported destination")
		}
	}
	return nil
}

func payload(t *testing.T, seq uint64, nodes int) []byte {
	t.Helper()
	s := model.EmptySnapshot()
	s.Sequence = seq
	s.Summary.Node = nodes
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return b
}

func newStore(t *testing.T, db *mocks.MockDB, last int64) *PostgresStorage {
	t.Helper()
	db.EXPECT().Exec(gomock.Any(), createTableSQL).Return(pgconn.CommandTag{}, nil)
	db.EXPECT().QueryRow(gomock.Any(), maxSequenceSQL).Return(fakeRow{values: []any{last}})

	store, err := NewWithDB(context.Background(), db, 3, nil)
	require.NoError(t, err)
	return store
}

func TestNewWithDB_SeedsSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)

	store := newStore(t, db, 5)
	require.EqualValues(t, 5, store.LastSequence())

	stale := model.EmptySnapshot()
	stale.Sequence = 5
	require.ErrorIs(t, store.Apply(context.Background(), &stale), errs.ErrStaleSnapshot)
}

func TestNewWithDB_CreateTableFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	db.EXPECT().Exec(gomock.Any(), createTableSQL).Return(pgconn.CommandTag{}, errors.New("permission denied"))

	_, err := NewWithDB(context.Background(), db, 3, nil)
	require.Error(t, err)
}

func TestApply_InsertsAndPrunes(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	snap := model.EmptySnapshot()
	snap.ID = "abc"
	snap.Sequence = 1
	snap.FetchedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		db.EXPECT().
			Exec(gomock.Any(), insertSQL, "abc", int64(1), snap.FetchedAt, gomock.Any()).
			Return(pgconn.NewCommandTag("INSERT 0 1"), nil),
		db.EXPECT().
			Exec(gomock.Any(), pruneSQL, 3).
			Return(pgconn.NewCommandTag("DELETE 0"), nil),
	)

	require.NoError(t, store.Apply(context.Background(), &snap))
	require.EqualValues(t, 1, store.LastSequence())
}

func TestApply_PruneFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	snap := model.EmptySnapshot()
	snap.Sequence = 1

	db.EXPECT().Exec(gomock.Any(), insertSQL, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag{}, nil)
	db.EXPECT().Exec(gomock.Any(), pruneSQL, gomock.Any()).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "42501"})

	require.NoError(t, store.Apply(context.Background(), &snap))
}

func TestApply_InsertFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	snap := model.EmptySnapshot()
	snap.Sequence = 1

	db.EXPECT().Exec(gomock.Any(), insertSQL, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"})

	require.Error(t, store.Apply(context.Background(), &snap))
}

func TestLatest(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	db.EXPECT().QueryRow(gomock.Any(), latestSQL).Return(fakeRow{values: []any{payload(t, 4, 3)}})

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, snap.Sequence)
	require.Equal(t, 3, snap.Summary.Node)
}

func TestLatest_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	db.EXPECT().QueryRow(gomock.Any(), latestSQL).Return(fakeRow{err: pgx.ErrNoRows})

	_, err := store.Latest(context.Background())
	require.ErrorIs(t, err, errs.ErrSnapshotNotFound)
}

func TestHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	rows := &fakeRows{data: [][]any{{payload(t, 3, 1)}, {payload(t, 2, 1)}}}
	// limit above the store bound is clamped
	db.EXPECT().Query(gomock.Any(), historySQL, 3).Return(rows, nil)

	h, err := store.History(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, h, 2)
	require.EqualValues(t, 3, h[0].Sequence)
	require.EqualValues(t, 2, h[1].Sequence)
}

func TestHistory_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	db.EXPECT().Query(gomock.Any(), historySQL, 2).Return(&fakeRows{}, nil)

	h, err := store.History(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Empty(t, h)
}

func TestPingAndClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDB(ctrl)
	store := newStore(t, db, 0)

	db.EXPECT().Ping(gomock.Any()).Return(nil)
	db.EXPECT().Close()

	require.NoError(t, store.Ping(context.Background()))
	store.Close()
}
