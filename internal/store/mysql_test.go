package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLStore(db), mock
}

func TestMySQLInsertDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records (collection, id, body) VALUES (?,?,?)")).
		WithArgs("bookings", "BK1", []byte(`{}`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.Insert(context.Background(), "bookings", "BK1", []byte(`{}`))
	assert.ErrorIs(t, err, ErrExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUpsert(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("ON DUPLICATE KEY UPDATE").
		WithArgs("bookings", "BK1", []byte(`{"id":"BK1"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Upsert(context.Background(), "bookings", "BK1", []byte(`{"id":"BK1"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM records")).
		WithArgs("bookings", "nope").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "bookings", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLList(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "body"}).
		AddRow("BK1", []byte(`{"id":"BK1"}`)).
		AddRow("BK2", []byte(`{"id":"BK2"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, body FROM records")).
		WithArgs("bookings").
		WillReturnRows(rows)

	recs, err := s.List(context.Background(), "bookings")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "BK2", recs[1].ID)
}

func TestMySQLDeleteMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WithArgs("bookings", "BK1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.Delete(context.Background(), "bookings", "BK1"), ErrNotFound)
}
