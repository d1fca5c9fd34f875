// Package store persists JSON records in named collections.  Each record
// is addressed by (collection, id) so writers upsert a single key instead
// of rewriting a whole collection.  Three backends implement Store:
// MemoryStore for tests and local runs, RedisStore and MySQLStore for
// durable deployments.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
)

// ErrNotFound is returned by Get and Delete when no record exists for the key.
var ErrNotFound = errors.New("record not found")

// ErrExists is returned by Insert when a record with the same key exists.
var ErrExists = errors.New("record already exists")

// Record is a raw stored value together with its key.
type Record struct {
	ID   string
	Body []byte
}

// Store is a keyed JSON record store.  Implementations must be safe for
// concurrent use.  List returns records in a stable order; callers that
// need a domain order sort the decoded values themselves.
type Store interface {
	Insert(ctx context.Context, collection, id string, body []byte) error
	Upsert(ctx context.Context, collection, id string, body []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	List(ctx context.Context, collection string) ([]Record, error)
	Delete(ctx context.Context, collection, id string) error
}

// DecodeError reports a stored record that could not be parsed.  It lets
// callers tell "empty because new" apart from "empty because corrupted".
type DecodeError struct {
	Collection string
	ID         string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err wraps a DecodeError.
func IsCorrupt(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

var logger = log.New("store")

// LoadAll decodes every record of a collection.  A record that fails to
// decode aborts the load with a *DecodeError.
func LoadAll[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	recs, err := s.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := json.Unmarshal(r.Body, &v); err != nil {
			return nil, &DecodeError{Collection: collection, ID: r.ID, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadOne decodes a single record.  ErrNotFound is returned unwrapped so
// callers can compare with errors.Is.
func LoadOne[T any](ctx context.Context, s Store, collection, id string) (*T, error) {
	body, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &DecodeError{Collection: collection, ID: id, Err: err}
	}
	return &v, nil
}

// Put encodes v and upserts it under id.
func Put[T any](ctx context.Context, s Store, collection, id string, v T) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return s.Upsert(ctx, collection, id, body)
}

// Create encodes v and inserts it under id, failing with ErrExists when the
// key is taken.
func Create[T any](ctx context.Context, s Store, collection, id string, v T) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return s.Insert(ctx, collection, id, body)
}

// OrEmpty is the best-effort read policy: any error is logged and an empty
// slice is returned instead.
func OrEmpty[T any](vs []T, err error) []T {
	if err != nil {
		logger.Errorf("load failed, using empty result: %v", err)
		return []T{}
	}
	if vs == nil {
		return []T{}
	}
	return vs
}

// OrNil is the best-effort read policy for single records.  ErrNotFound is
// not logged since absence is the normal case.
func OrNil[T any](v *T, err error) *T {
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Errorf("load failed, using nil result: %v", err)
		}
		return nil
	}
	return v
}
