package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polosync/polosync/exchanges/timecache"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlite3")), mock
}

func TestLoadHit(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"range_start", "range_end", "payload"}).
		AddRow(int64(100), int64(200), []byte(`[{"id":1}]`))
	mock.ExpectQuery(loadQuery).WithArgs("loan_history", "").WillReturnRows(rows)

	payload, r, found, err := store.Load("loan_history", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`[{"id":1}]`), payload)
	assert.Equal(t, timecache.Range{Start: time.Unix(100, 0), End: time.Unix(200, 0)}, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMiss(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectQuery(loadQuery).WithArgs("trade_history", "all").WillReturnError(sql.ErrNoRows)

	_, _, found, err := store.Load("trade_history", "all")
	require.NoError(t, err, "a missing row is a miss, not an error")
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectExec(upsertQuery).
		WithArgs("loan_history", "", int64(100), int64(200), []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Save("loan_history", "",
		timecache.Range{Start: time.Unix(100, 0), End: time.Unix(200, 0)}, []byte(`[]`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
