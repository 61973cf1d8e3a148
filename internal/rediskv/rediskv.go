// Package rediskv stores settings and progress in Redis.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Store is a key-value store on a Redis database. Every key is stored
// under namespace so several profiles can share one server.
type Store struct {
	rdb       *goredis.Client
	namespace string
}

// Open connects to addr and pings the server.
func Open(ctx context.Context, addr, namespace string) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb, namespace: namespace}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(k string) string {
	return s.namespace + k
}

// GetValue returns the raw value for key. ok is false when the key is absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetValue stores value without expiry.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

// DeleteValue removes key.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

// KeysWithPrefix lists keys starting with prefix, namespace stripped.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.key(prefix)) + "*"
	seen := map[string]struct{}{}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		k := strings.TrimPrefix(iter.Val(), s.namespace)
		// SCAN may return a key more than once.
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
