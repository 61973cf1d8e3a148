// Package settings loads and persists user preferences.
package settings

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
)

// Storage keys.
const (
	KeySelectedSets = "kana:selectedSets"
	KeySelectionMap = "kana:selectionMap"
	KeyDirection    = "kana:direction"
	KeyAutoSkip     = "kana:autoSkip"
	KeySoundEffects = "kana:soundEffects"
	KeySpeech       = "kana:speech"
	KeyTimedMode    = "kana:timedMode"
)

// KV is the subset of the key-value store settings need.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Manager holds the current settings and writes changes through to KV.
type Manager struct {
	kv  KV
	log *logger.Logger

	mu      sync.Mutex
	current model.Settings
}

// New returns a manager holding the defaults.
func New(kv KV, log *logger.Logger) *Manager {
	return &Manager{
		kv:      kv,
		log:     log.With("component", "settings"),
		current: charset.DefaultSettings(),
	}
}

// Load reads every key, keeping the default for absent or unreadable ones.
func (m *Manager) Load(ctx context.Context) model.Settings {
	s := charset.DefaultSettings()
	m.read(ctx, KeySelectedSets, &s.SelectedSets)
	m.read(ctx, KeySelectionMap, &s.Selection)
	m.read(ctx, KeyDirection, &s.Direction)
	m.read(ctx, KeyAutoSkip, &s.AutoSkip)
	m.read(ctx, KeySoundEffects, &s.SoundEffects)
	m.read(ctx, KeySpeech, &s.Speech)
	m.read(ctx, KeyTimedMode, &s.TimedMode)
	if s.Selection == nil {
		s.Selection = map[string][]string{}
	}
	if s.SelectedSets == nil {
		s.SelectedSets = []string{}
	}
	s = charset.Sanitize(s)

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s.Clone()
}

func (m *Manager) read(ctx context.Context, key string, dst any) {
	raw, ok, err := m.kv.GetValue(ctx, key)
	if err != nil {
		m.log.Warn("failed to read setting", "key", key, "error", err)
		return
	}
	if !ok {
		return
	}
	// Decode into a scratch value so a bad payload leaves the default intact.
	tmp := reflect.New(reflect.TypeOf(dst).Elem())
	if err := json.Unmarshal([]byte(raw), tmp.Interface()); err != nil {
		m.log.Warn("malformed setting, using default", "key", key, "error", err)
		return
	}
	reflect.ValueOf(dst).Elem().Set(tmp.Elem())
}

// Current returns a copy of the active settings.
func (m *Manager) Current() model.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Update applies fn to a copy of the current settings, stores every changed
// key and returns the new value. Write failures are logged and the new value
// stays active.
func (m *Manager) Update(ctx context.Context, fn func(model.Settings) model.Settings) model.Settings {
	m.mu.Lock()
	prev := m.current
	next := fn(prev.Clone())
	if next.Selection == nil {
		next.Selection = map[string][]string{}
	}
	m.current = next.Clone()
	m.mu.Unlock()

	for _, c := range diff(prev, next) {
		data, err := json.Marshal(c.value)
		if err != nil {
			m.log.Error("failed to encode setting", "key", c.key, "error", err)
			continue
		}
		if err := m.kv.SetValue(ctx, c.key, string(data)); err != nil {
			m.log.Error("failed to persist setting", "key", c.key, "error", err)
		}
	}
	return next.Clone()
}

type change struct {
	key   string
	value any
}

func diff(prev, next model.Settings) []change {
	var out []change
	if !reflect.DeepEqual(prev.SelectedSets, next.SelectedSets) {
		out = append(out, change{KeySelectedSets, nonNil(next.SelectedSets)})
	}
	if !reflect.DeepEqual(prev.Selection, next.Selection) {
		out = append(out, change{KeySelectionMap, next.Selection})
	}
	if prev.Direction != next.Direction {
		out = append(out, change{KeyDirection, next.Direction})
	}
	if prev.AutoSkip != next.AutoSkip {
		out = append(out, change{KeyAutoSkip, next.AutoSkip})
	}
	if prev.SoundEffects != next.SoundEffects {
		out = append(out, change{KeySoundEffects, next.SoundEffects})
	}
	if prev.Speech != next.Speech {
		out = append(out, change{KeySpeech, next.Speech})
	}
	if prev.TimedMode != next.TimedMode {
		out = append(out, change{KeyTimedMode, next.TimedMode})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
