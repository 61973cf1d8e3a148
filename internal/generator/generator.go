// Package generator selects the next character to drill and builds questions.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/kanadrill/internal/model"
)

const (
	// MaxWeight caps a single character's weight.
	MaxWeight = 100.0
	// OptionCount is the size of a full multiple-choice option set.
	OptionCount = 4

	leastSeenBias  = 4.0
	secondSeenBias = 2.0
	defaultBias    = 1.0
)

// Generator draws characters with a bias toward weak and rarely seen ones.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSource returns a Generator that draws from src.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// SelectNext picks the next character from available, or nil when it is empty.
func (g *Generator) SelectNext(available []model.Drillable, history []model.HistoryItem, mistakes map[string]model.MistakeRecord) model.Drillable {
	if len(available) == 0 {
		return nil
	}
	weights := Weights(available, history, mistakes)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return available[PickIndex(weights, g.rnd.Float64()*total)]
}

// Weights computes the selection weight of every available character.
func Weights(available []model.Drillable, history []model.HistoryItem, mistakes map[string]model.MistakeRecord) []float64 {
	appearances := AppearanceCounts(history)
	minAppearances := math.MaxInt
	for _, ch := range available {
		if n := appearances[ch.Glyph()]; n < minAppearances {
			minAppearances = n
		}
	}
	weights := make([]float64, len(available))
	for i, ch := range available {
		weights[i] = Weight(mistakes[ch.Glyph()].Count, appearances[ch.Glyph()], minAppearances)
	}
	return weights
}

// Weight combines the mistake and freshness terms for one character.
func Weight(mistakeCount, appearances, minAppearances int) float64 {
	if mistakeCount < 0 {
		mistakeCount = 0
	}
	w := math.Pow(2, float64(mistakeCount)) * AppearanceBias(appearances, minAppearances)
	return math.Min(w, MaxWeight)
}

// AppearanceBias favours the least seen and second least seen tiers.
func AppearanceBias(appearances, minAppearances int) float64 {
	switch appearances {
	case minAppearances:
		return leastSeenBias
	case minAppearances + 1:
		return secondSeenBias
	default:
		return defaultBias
	}
}

// AppearanceCounts counts history entries per glyph over the whole history.
func AppearanceCounts(history []model.HistoryItem) map[string]int {
	counts := make(map[string]int, len(history))
	for _, item := range history {
		counts[item.Char]++
	}
	return counts
}

// PickIndex walks the cumulative weights and returns the first index whose
// running total reaches r. Overshoot falls back to the last index.
func PickIndex(weights []float64, r float64) int {
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// GenerateOptions returns correct plus up to three distinct distractors from
// pool, shuffled once. Fewer than three distractors yield a shorter list.
func (g *Generator) GenerateOptions(correct model.Drillable, pool []model.Drillable) []model.Drillable {
	options := []model.Drillable{correct}
	options = append(options, g.drawDistractors(correct, pool, OptionCount-1, nil)...)
	g.shuffle(options)
	return options
}

// GenerateOptionsPadded behaves like GenerateOptions and tops the distractors
// up from fallback when pool cannot supply three.
func (g *Generator) GenerateOptionsPadded(correct model.Drillable, pool, fallback []model.Drillable) []model.Drillable {
	options := []model.Drillable{correct}
	distractors := g.drawDistractors(correct, pool, OptionCount-1, nil)
	if missing := OptionCount - 1 - len(distractors); missing > 0 {
		used := make(map[string]struct{}, len(distractors))
		for _, d := range distractors {
			used[d.Glyph()] = struct{}{}
		}
		distractors = append(distractors, g.drawDistractors(correct, fallback, missing, used)...)
	}
	options = append(options, distractors...)
	g.shuffle(options)
	return options
}

func (g *Generator) drawDistractors(correct model.Drillable, pool []model.Drillable, n int, exclude map[string]struct{}) []model.Drillable {
	seen := map[string]struct{}{correct.Glyph(): {}}
	for k := range exclude {
		seen[k] = struct{}{}
	}
	candidates := make([]model.Drillable, 0, len(pool))
	for _, ch := range pool {
		if _, ok := seen[ch.Glyph()]; ok {
			continue
		}
		seen[ch.Glyph()] = struct{}{}
		candidates = append(candidates, ch)
	}
	g.shuffle(candidates)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func (g *Generator) shuffle(items []model.Drillable) {
	g.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
