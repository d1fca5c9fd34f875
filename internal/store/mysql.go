package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore keeps records in a single `records` table keyed by
// (collection, id).  See database.EnsureSchema for the DDL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the provided database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// mysqlDuplicateEntry is the server error number for a primary key clash.
const mysqlDuplicateEntry = 1062

func (s *MySQLStore) Insert(ctx context.Context, collection, id string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO records (collection, id, body) VALUES (?,?,?)",
		collection, id, body)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrExists
		}
		return err
	}
	return nil
}

func (s *MySQLStore) Upsert(ctx context.Context, collection, id string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, body) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = UTC_TIMESTAMP()`,
		collection, id, body)
	return err
}

func (s *MySQLStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM records WHERE collection=? AND id=? LIMIT 1",
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// List returns records in creation order.
func (s *MySQLStore) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM records WHERE collection=? ORDER BY created_at, id",
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Body); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MySQLStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection=? AND id=?",
		collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
