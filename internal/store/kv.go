package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

// KV is a string key/value table in the local sqlite file. Missing keys read
// as "".
type KV struct {
	db *sql.DB
}

func (s Store) OpenKV(ctx context.Context) (*KV, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

func (kv *KV) Close() error {
	if kv == nil || kv.db == nil {
		return nil
	}
	return kv.db.Close()
}

func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetMany writes all pairs in one transaction.
func (kv *KV) SetMany(ctx context.Context, pairs map[string]string) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv(key, value, updated_at) VALUES(?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, pairs[k]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	return kv.SetMany(ctx, map[string]string{key: value})
}

func (kv *KV) Delete(ctx context.Context, keys ...string) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (kv *KV) All(ctx context.Context) (map[string]string, error) {
	rows, err := kv.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
