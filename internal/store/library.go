package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/verte-zerg/kanadrill/internal/model"
)

var kanjiColumns = []string{"id", "char", "reading", "romaji", "meaning", "set_id"}

// ListSets returns study sets in creation order.
func (s *Store) ListSets(ctx context.Context) ([]model.StudySet, error) {
	query, args, err := s.sb.Select("id", "name").From(setsTable).OrderBy("position ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	defer closeRows(rows)

	var sets []model.StudySet
	for rows.Next() {
		var set model.StudySet
		if err := rows.Scan(&set.ID, &set.Name); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// InsertSet stores a new study set.
func (s *Store) InsertSet(ctx context.Context, set model.StudySet) error {
	b := s.sb.Insert(setsTable).
		Columns("id", "name", "position").
		Values(set.ID, set.Name, sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM study_sets)"))
	if _, err := s.exec(ctx, s.db, b); err != nil {
		return fmt.Errorf("failed to insert set: %w", err)
	}
	return nil
}

// SetExists reports whether a study set with id is stored.
func (s *Store) SetExists(ctx context.Context, id string) (bool, error) {
	query, args, err := s.sb.Select("1").From(setsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteSet removes a study set and every kanji that belongs to it in one transaction.
func (s *Store) DeleteSet(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = s.exec(ctx, tx, s.sb.Delete(kanjiTable).Where(sq.Eq{"set_id": id})); err != nil {
		return fmt.Errorf("failed to delete set kanji: %w", err)
	}
	res, err := s.exec(ctx, tx, s.sb.Delete(setsTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("set %s: %w", id, model.ErrNotFound)
		return err
	}
	return tx.Commit()
}

// ListKanji returns the kanji of one set in insertion order.
func (s *Store) ListKanji(ctx context.Context, setID string) ([]model.LibraryKanji, error) {
	query, args, err := s.sb.Select(kanjiColumns...).
		From(kanjiTable).
		Where(sq.Eq{"set_id": setID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list kanji: %w", err)
	}
	defer closeRows(rows)

	var out []model.LibraryKanji
	for rows.Next() {
		k, err := scanKanji(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetKanji returns one kanji by id.
func (s *Store) GetKanji(ctx context.Context, id string) (model.LibraryKanji, error) {
	query, args, err := s.sb.Select(kanjiColumns...).From(kanjiTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.LibraryKanji{}, err
	}
	k, err := scanKanji(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LibraryKanji{}, fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	return k, err
}

// InsertKanji stores a new kanji.
func (s *Store) InsertKanji(ctx context.Context, k model.LibraryKanji) error {
	romaji, err := encodeRomaji(k.Romaji)
	if err != nil {
		return err
	}
	b := s.sb.Insert(kanjiTable).
		Columns(append(kanjiColumns, "position")...).
		Values(k.ID, k.Char, k.Reading, romaji, k.Meaning, k.SetID,
			sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM kanji)"))
	if _, err := s.exec(ctx, s.db, b); err != nil {
		return fmt.Errorf("failed to insert kanji: %w", err)
	}
	return nil
}

// UpdateKanji applies the non-nil fields of upd and returns the stored kanji.
func (s *Store) UpdateKanji(ctx context.Context, id string, upd model.KanjiUpdate) (model.LibraryKanji, error) {
	if upd.Empty() {
		return s.GetKanji(ctx, id)
	}
	b := s.sb.Update(kanjiTable).Where(sq.Eq{"id": id})
	if upd.Char != nil {
		b = b.Set("char", *upd.Char)
	}
	if upd.Reading != nil {
		b = b.Set("reading", *upd.Reading)
	}
	if upd.Romaji != nil {
		romaji, err := encodeRomaji(upd.Romaji)
		if err != nil {
			return model.LibraryKanji{}, err
		}
		b = b.Set("romaji", romaji)
	}
	if upd.Meaning != nil {
		b = b.Set("meaning", *upd.Meaning)
	}
	if upd.SetID != nil {
		b = b.Set("set_id", *upd.SetID)
	}
	res, err := s.exec(ctx, s.db, b)
	if err != nil {
		return model.LibraryKanji{}, fmt.Errorf("failed to update kanji: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.LibraryKanji{}, err
	} else if n == 0 {
		return model.LibraryKanji{}, fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	return s.GetKanji(ctx, id)
}

// DeleteKanji removes one kanji.
func (s *Store) DeleteKanji(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete(kanjiTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete kanji: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("kanji %s: %w", id, model.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKanji(row scanner) (model.LibraryKanji, error) {
	var k model.LibraryKanji
	var romaji string
	if err := row.Scan(&k.ID, &k.Char, &k.Reading, &romaji, &k.Meaning, &k.SetID); err != nil {
		return model.LibraryKanji{}, err
	}
	if romaji != "" {
		if err := json.Unmarshal([]byte(romaji), &k.Romaji); err != nil {
			return model.LibraryKanji{}, fmt.Errorf("failed to decode romaji for %s: %w", k.ID, err)
		}
	}
	return k, nil
}

func encodeRomaji(romaji []string) (string, error) {
	if romaji == nil {
		romaji = []string{}
	}
	data, err := json.Marshal(romaji)
	if err != nil {
		return "", fmt.Errorf("failed to encode romaji: %w", err)
	}
	return string(data), nil
}
