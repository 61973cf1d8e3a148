// Package library manages user study sets and their kanji.
package library

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
)

const (
	maxSetName  = 100
	refreshJobs = 4
)

// Store persists study sets and kanji.
type Store interface {
	ListSets(ctx context.Context) ([]model.StudySet, error)
	InsertSet(ctx context.Context, set model.StudySet) error
	SetExists(ctx context.Context, id string) (bool, error)
	DeleteSet(ctx context.Context, id string) error
	ListKanji(ctx context.Context, setID string) ([]model.LibraryKanji, error)
	GetKanji(ctx context.Context, id string) (model.LibraryKanji, error)
	InsertKanji(ctx context.Context, k model.LibraryKanji) error
	UpdateKanji(ctx context.Context, id string, upd model.KanjiUpdate) (model.LibraryKanji, error)
	DeleteKanji(ctx context.Context, id string) error
}

// Service validates library changes and loads snapshots.
type Service struct {
	store Store
	log   *logger.Logger
	newID func() string
}

// NewService creates a library service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With("component", "library"),
		newID: uuid.NewString,
	}
}

// ListSets returns every study set.
func (s *Service) ListSets(ctx context.Context) ([]model.StudySet, error) {
	sets, err := s.store.ListSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	return sets, nil
}

// AddSet creates a study set named name.
func (s *Service) AddSet(ctx context.Context, name string) (model.StudySet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.StudySet{}, model.NewValidationError("name", "required")
	}
	if utf8.RuneCountInString(name) > maxSetName {
		return model.StudySet{}, model.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxSetName))
	}
	set := model.StudySet{ID: s.newID(), Name: name}
	if err := s.store.InsertSet(ctx, set); err != nil {
		return model.StudySet{}, fmt.Errorf("failed to add set: %w", err)
	}
	s.log.Info("set added", "set_id", set.ID)
	return set, nil
}

// DeleteSet removes a set together with its kanji.
func (s *Service) DeleteSet(ctx context.Context, id string) error {
	if err := s.store.DeleteSet(ctx, id); err != nil {
		return fmt.Errorf("failed to delete set: %w", err)
	}
	s.log.Info("set deleted", "set_id", id)
	return nil
}

// ListKanji returns the kanji of one set.
func (s *Service) ListKanji(ctx context.Context, setID string) ([]model.LibraryKanji, error) {
	list, err := s.store.ListKanji(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to list kanji: %w", err)
	}
	return list, nil
}

// AddKanji validates and stores a kanji in an existing set.
func (s *Service) AddKanji(ctx context.Context, in model.NewKanji) (model.LibraryKanji, error) {
	k := model.LibraryKanji{
		ID:      s.newID(),
		Char:    strings.TrimSpace(in.Char),
		Reading: strings.TrimSpace(in.Reading),
		Romaji:  NormalizeRomaji(in.Romaji),
		Meaning: strings.TrimSpace(in.Meaning),
		SetID:   strings.TrimSpace(in.SetID),
	}
	verr := &model.ValidationError{}
	if k.Char == "" {
		verr.Errors = append(verr.Errors, model.FieldError{Field: "char", Message: "required"})
	}
	if len(k.Romaji) == 0 {
		verr.Errors = append(verr.Errors, model.FieldError{Field: "romaji", Message: "at least one romanization required"})
	}
	if k.SetID == "" {
		verr.Errors = append(verr.Errors, model.FieldError{Field: "set", Message: "required"})
	}
	if len(verr.Errors) > 0 {
		return model.LibraryKanji{}, verr
	}
	if err := s.requireSet(ctx, k.SetID); err != nil {
		return model.LibraryKanji{}, err
	}
	if err := s.store.InsertKanji(ctx, k); err != nil {
		return model.LibraryKanji{}, fmt.Errorf("failed to add kanji: %w", err)
	}
	return k, nil
}

// UpdateKanji changes the given fields of a stored kanji.
func (s *Service) UpdateKanji(ctx context.Context, id string, upd model.KanjiUpdate) (model.LibraryKanji, error) {
	if upd.Empty() {
		return model.LibraryKanji{}, model.NewValidationError("update", "no fields to change")
	}
	if upd.Char != nil {
		c := strings.TrimSpace(*upd.Char)
		if c == "" {
			return model.LibraryKanji{}, model.NewValidationError("char", "required")
		}
		upd.Char = &c
	}
	if upd.Romaji != nil {
		upd.Romaji = NormalizeRomaji(upd.Romaji)
		if len(upd.Romaji) == 0 {
			return model.LibraryKanji{}, model.NewValidationError("romaji", "at least one romanization required")
		}
	}
	if upd.SetID != nil {
		if err := s.requireSet(ctx, *upd.SetID); err != nil {
			return model.LibraryKanji{}, err
		}
	}
	k, err := s.store.UpdateKanji(ctx, id, upd)
	if err != nil {
		return model.LibraryKanji{}, fmt.Errorf("failed to update kanji: %w", err)
	}
	return k, nil
}

// DeleteKanji removes one kanji.
func (s *Service) DeleteKanji(ctx context.Context, id string) error {
	if err := s.store.DeleteKanji(ctx, id); err != nil {
		return fmt.Errorf("failed to delete kanji: %w", err)
	}
	return nil
}

func (s *Service) requireSet(ctx context.Context, id string) error {
	ok, err := s.store.SetExists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up set: %w", err)
	}
	if !ok {
		return fmt.Errorf("set %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// NormalizeRomaji lowercases, trims and de-duplicates romanizations.
func NormalizeRomaji(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, r := range in {
		for _, part := range strings.Split(r, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

// Snapshot is a point-in-time copy of the library.
type Snapshot struct {
	Sets  []model.StudySet
	Kanji map[string][]model.LibraryKanji
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Sets:  append([]model.StudySet(nil), s.Sets...),
		Kanji: make(map[string][]model.LibraryKanji, len(s.Kanji)),
	}
	for id, list := range s.Kanji {
		cp := make([]model.LibraryKanji, len(list))
		for i, k := range list {
			k.Romaji = append([]string(nil), k.Romaji...)
			cp[i] = k
		}
		out.Kanji[id] = cp
	}
	return out
}

// Registry builds a character registry over the snapshot.
func (s Snapshot) Registry() *charset.Registry {
	return charset.NewRegistry().WithLibrary(s.Sets, s.Kanji)
}

// Refresh lists every set and loads their kanji concurrently.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	sets, err := s.store.ListSets(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to refresh library: %w", err)
	}
	lists := make([][]model.LibraryKanji, len(sets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshJobs)
	for i, set := range sets {
		g.Go(func() error {
			list, err := s.store.ListKanji(gctx, set.ID)
			if err != nil {
				return fmt.Errorf("set %s: %w", set.ID, err)
			}
			lists[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to refresh library: %w", err)
	}
	snap := Snapshot{Sets: sets, Kanji: make(map[string][]model.LibraryKanji, len(sets))}
	for i, set := range sets {
		snap.Kanji[set.ID] = lists[i]
	}
	s.log.Debug("library refreshed", "sets", len(sets))
	return snap, nil
}

// SanitizeSelection drops selection entries for sets or kanji that no longer
// exist. Built-in sets are left untouched.
func SanitizeSelection(settings model.Settings, snap Snapshot) model.Settings {
	out := settings.Clone()
	for set, keys := range out.Selection {
		if charset.IsStatic(set) {
			continue
		}
		list, ok := snap.Kanji[set]
		if !ok {
			delete(out.Selection, set)
			continue
		}
		valid := make(map[string]struct{}, len(list))
		for _, k := range list {
			valid[k.Key()] = struct{}{}
		}
		kept := keys[:0]
		for _, key := range keys {
			if _, ok := valid[key]; ok {
				kept = append(kept, key)
			}
		}
		out.Selection[set] = kept
	}
	return out
}

// Apply runs an optimistic update: local produces the new state from a copy
// of prev, then remote persists it. If remote fails prev is returned with
// the error so the caller can restore it.
func Apply[T any](ctx context.Context, prev T, clone func(T) T, local func(T) T, remote func(context.Context) error) (T, error) {
	next := local(clone(prev))
	if err := remote(ctx); err != nil {
		return prev, err
	}
	return next, nil
}

// MoveKanji moves a kanji to another set, updating snap optimistically.
func (s *Service) MoveKanji(ctx context.Context, snap Snapshot, id, target string) (Snapshot, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return snap, model.NewValidationError("set", "required")
	}
	if _, ok := snap.Kanji[target]; !ok {
		return snap, fmt.Errorf("set %s: %w", target, model.ErrNotFound)
	}
	return Apply(ctx, snap, Snapshot.Clone,
		func(next Snapshot) Snapshot {
			for setID, list := range next.Kanji {
				for i, k := range list {
					if k.ID != id {
						continue
					}
					next.Kanji[setID] = append(list[:i:i], list[i+1:]...)
					k.SetID = target
					next.Kanji[target] = append(next.Kanji[target], k)
					return next
				}
			}
			return next
		},
		func(ctx context.Context) error {
			_, err := s.UpdateKanji(ctx, id, model.KanjiUpdate{SetID: &target})
			return err
		},
	)
}

// RemoveKanji deletes a kanji, updating snap optimistically.
func (s *Service) RemoveKanji(ctx context.Context, snap Snapshot, id string) (Snapshot, error) {
	return Apply(ctx, snap, Snapshot.Clone,
		func(next Snapshot) Snapshot {
			for setID, list := range next.Kanji {
				for i, k := range list {
					if k.ID == id {
						next.Kanji[setID] = append(list[:i:i], list[i+1:]...)
						return next
					}
				}
			}
			return next
		},
		func(ctx context.Context) error {
			return s.DeleteKanji(ctx, id)
		},
	)
}
