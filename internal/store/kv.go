package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// GetValue returns the raw value for key. ok is false when the key is absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	query, args, err := s.sb.Select("value").From(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, err
	}
	var value string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// SetValue inserts or replaces the value for key.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	b := s.sb.Insert(kvTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	_, err := s.exec(ctx, s.db, b)
	return err
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	_, err := s.exec(ctx, s.db, s.sb.Delete(kvTable).Where(sq.Eq{"key": key}))
	return err
}

// KeysWithPrefix lists keys starting with prefix in lexical order.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := s.sb.Select("key").
		From(kvTable).
		Where(sq.Expr(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")).
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
