package store

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in one Redis hash named
// "<prefix>:<collection>" with record ids as fields.  Single-field writes
// make every write a keyed upsert.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore binds a RedisStore to an existing client.  An empty prefix
// defaults to "dn".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "dn"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) key(collection string) string { return r.prefix + ":" + collection }

func (r *RedisStore) Insert(ctx context.Context, collection, id string, body []byte) error {
	ok, err := r.rdb.HSetNX(ctx, r.key(collection), id, body).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Upsert(ctx context.Context, collection, id string, body []byte) error {
	return r.rdb.HSet(ctx, r.key(collection), id, body).Err()
}

func (r *RedisStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	b, err := r.rdb.HGet(ctx, r.key(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns records sorted by id; hashes carry no insertion order.
func (r *RedisStore) List(ctx context.Context, collection string) ([]Record, error) {
	m, err := r.rdb.HGetAll(ctx, r.key(collection)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(m))
	for id, body := range m {
		out = append(out, Record{ID: id, Body: []byte(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, collection, id string) error {
	n, err := r.rdb.HDel(ctx, r.key(collection), id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
