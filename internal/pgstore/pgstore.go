// Package pgstore keeps the kanji library in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verte-zerg/kanadrill/internal/model"
)

var kanjiColumns = []string{"id", "char", "reading", "romaji", "meaning", "set_id"}

// Store is the library store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// Open creates a pool for dsn, pings it and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	st := &Store{pool: pool, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
	if err := st.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS study_sets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS kanji (
			id TEXT PRIMARY KEY,
			char TEXT NOT NULL,
			reading TEXT NOT NULL DEFAULT '',
			romaji TEXT[] NOT NULL DEFAULT '{}',
			meaning TEXT NOT NULL DEFAULT '',
			set_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kanji_set_id ON kanji(set_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) exec(ctx context.Context, q querier, b sq.Sqlizer) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("failed to build query: %w", err)
	}
	return q.Exec(ctx, query, args...)
}

// runInTx executes fn in a transaction, rolling back when it fails.
func (s *Store) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListSets returns study sets in creation order.
func (s *Store) ListSets(ctx context.Context) ([]model.StudySet, error) {
	query, args, err := s.sb.Select("id", "name").From("study_sets").OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	sets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StudySet, error) {
		var set model.StudySet
		err := row.Scan(&set.ID, &set.Name)
		return set, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	return sets, nil
}

// InsertSet stores a new study set.
func (s *Store) InsertSet(ctx context.Context, set model.StudySet) error {
	b := s.sb.Insert("study_sets").Columns("id", "name").Values(set.ID, set.Name)
	if _, err := s.exec(ctx, s.pool, b); err != nil {
		return fmt.Errorf("failed to insert set: %w", err)
	}
	return nil
}

// SetExists reports whether a study set with id is stored.
func (s *Store) SetExists(ctx context.Context, id string) (bool, error) {
	query, args, err := s.sb.Select("1").From("study_sets").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteSet removes a study set and its kanji atomically.
func (s *Store) DeleteSet(ctx context.Context, id string) error {
	return s.runInTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.exec(ctx, tx, s.sb.Delete("kanji").Where(sq.Eq{"set_id": id})); err != nil {
			return fmt.Errorf("failed to delete set kanji: %w", err)
		}
		tag, err := s.exec(ctx, tx, s.sb.Delete("study_sets").Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("failed to delete set: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("set %s: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

// ListKanji returns the kanji of one set in insertion order.
func (s *Store) ListKanji(ctx context.Context, setID string) ([]model.LibraryKanji, error) {
	query, args, err := s.sb.Select(kanjiColumns...).
		From("kanji").
		Where(sq.Eq{"set_id": setID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list kanji: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LibraryKanji, error) {
		return scanKanji(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list kanji: %w", err)
	}
	return out, nil
}

// GetKanji returns one kanji by id.
func (s *Store) GetKanji(ctx context.Context, id string) (model.LibraryKanji, error) {
	query, args, err := s.sb.Select(kanjiColumns...).From("kanji").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.LibraryKanji{}, err
	}
	k, err := scanKanji(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LibraryKanji{}, fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	return k, err
}

// InsertKanji stores a new kanji.
func (s *Store) InsertKanji(ctx context.Context, k model.LibraryKanji) error {
	romaji := k.Romaji
	if romaji == nil {
		romaji = []string{}
	}
	b := s.sb.Insert("kanji").
		Columns(kanjiColumns...).
		Values(k.ID, k.Char, k.Reading, romaji, k.Meaning, k.SetID)
	if _, err := s.exec(ctx, s.pool, b); err != nil {
		return fmt.Errorf("failed to insert kanji: %w", err)
	}
	return nil
}

// UpdateKanji applies the non-nil fields of upd and returns the stored kanji.
func (s *Store) UpdateKanji(ctx context.Context, id string, upd model.KanjiUpdate) (model.LibraryKanji, error) {
	if upd.Empty() {
		return s.GetKanji(ctx, id)
	}
	b := s.sb.Update("kanji").Where(sq.Eq{"id": id}).Suffix("RETURNING " + strings.Join(kanjiColumns, ", "))
	if upd.Char != nil {
		b = b.Set("char", *upd.Char)
	}
	if upd.Reading != nil {
		b = b.Set("reading", *upd.Reading)
	}
	if upd.Romaji != nil {
		b = b.Set("romaji", upd.Romaji)
	}
	if upd.Meaning != nil {
		b = b.Set("meaning", *upd.Meaning)
	}
	if upd.SetID != nil {
		b = b.Set("set_id", *upd.SetID)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return model.LibraryKanji{}, err
	}
	k, err := scanKanji(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LibraryKanji{}, fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.LibraryKanji{}, fmt.Errorf("failed to update kanji: %w", err)
	}
	return k, nil
}

// DeleteKanji removes one kanji.
func (s *Store) DeleteKanji(ctx context.Context, id string) error {
	tag, err := s.exec(ctx, s.pool, s.sb.Delete("kanji").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete kanji: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func scanKanji(row pgx.Row) (model.LibraryKanji, error) {
	var k model.LibraryKanji
	err := row.Scan(&k.ID, &k.Char, &k.Reading, &k.Romaji, &k.Meaning, &k.SetID)
	return k, err
}
