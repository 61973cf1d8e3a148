// Package session runs the quiz flow: picking questions, judging answers and
// telling the caller when to advance.
package session

import (
	"errors"
	"time"

	"github.com/verte-zerg/kanadrill/internal/generator"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
)

// ErrNoCharacters is returned when the drill pool is empty.
var ErrNoCharacters = errors.New("no characters selected")

// TimeoutAnswer is recorded when a timed question runs out.
const TimeoutAnswer = "timeout"

// Default delays.
const (
	DefaultCorrectDelay   = 400 * time.Millisecond
	DefaultIncorrectDelay = 800 * time.Millisecond
	DefaultTimeLimit      = 2 * time.Second
)

// Recorder receives answer attempts and exposes the state the selector reads.
type Recorder interface {
	RecordAttempt(ch model.Drillable, attempt string, isCorrect bool)
	Snapshot() progress.Snapshot
	ResetStreak()
}

// Config tunes timing and option padding.
type Config struct {
	CorrectDelay   time.Duration
	IncorrectDelay time.Duration
	TimeLimit      time.Duration
	// PadOptions fills short multiple-choice sets from the whole selected sets.
	PadOptions bool
}

// DefaultConfig returns the standard timings with padding enabled.
func DefaultConfig() Config {
	return Config{
		CorrectDelay:   DefaultCorrectDelay,
		IncorrectDelay: DefaultIncorrectDelay,
		TimeLimit:      DefaultTimeLimit,
		PadOptions:     true,
	}
}

// Status is the result of feeding input to the session.
type Status int

const (
	// Ignored means the input had no effect.
	Ignored Status = iota
	// Pending means typed input may still become a correct answer.
	Pending
	// Correct means the question was answered correctly.
	Correct
	// Incorrect means the question was answered wrongly and is finished.
	Incorrect
	// WrongGuess means a multiple-choice option was wrong; the question stays open.
	WrongGuess
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case WrongGuess:
		return "wrong guess"
	default:
		return "ignored"
	}
}

// Timer asks the caller to call back after a delay with Seq.
type Timer struct {
	Seq   uint64
	After time.Duration
}

// Outcome describes the effect of an input.
type Outcome struct {
	Status   Status
	Feedback model.Feedback
	// Advance is set when the caller should move on after a delay. Explicit
	// submissions leave it nil and wait for the user to continue.
	Advance *Timer
}

// Session holds the state of one quiz run. It is not safe for concurrent use;
// the TUI drives it from its update loop.
type Session struct {
	gen *generator.Generator
	rec Recorder
	cfg Config

	settings model.Settings
	pool     []model.Drillable
	fallback []model.Drillable

	question *model.Question
	answered bool
	wrong    map[string]struct{}
	seq      uint64
}

// New creates an idle session.
func New(gen *generator.Generator, rec Recorder, cfg Config) *Session {
	return &Session{gen: gen, rec: rec, cfg: cfg, wrong: map[string]struct{}{}}
}

// Start begins a quiz over pool. fallback pads multiple-choice options.
func (s *Session) Start(settings model.Settings, pool, fallback []model.Drillable) error {
	if len(pool) == 0 {
		return ErrNoCharacters
	}
	s.settings = settings.Clone()
	s.pool = append([]model.Drillable(nil), pool...)
	s.fallback = append([]model.Drillable(nil), fallback...)
	s.question = nil
	s.answered = false
	s.rec.ResetStreak()
	return nil
}

// Next picks and returns a new question, cancelling any pending timer.
func (s *Session) Next() (*model.Question, error) {
	s.seq++
	snap := s.rec.Snapshot()
	ch := s.gen.SelectNext(s.pool, snap.History, snap.Mistakes)
	if ch == nil {
		s.question = nil
		return nil, ErrNoCharacters
	}
	var fallback []model.Drillable
	if s.cfg.PadOptions {
		fallback = s.fallback
	}
	s.question = s.gen.NewQuestion(ch, s.settings.Direction, s.pool, fallback)
	s.answered = false
	s.wrong = map[string]struct{}{}
	return s.question, nil
}

// Question returns the active question.
func (s *Session) Question() *model.Question {
	return s.question
}

// Answered reports whether the active question is finished.
func (s *Session) Answered() bool {
	return s.answered
}

// Settings returns the settings the session was started with.
func (s *Session) Settings() model.Settings {
	return s.settings.Clone()
}

// WrongGuess reports whether option was already picked wrongly.
func (s *Session) WrongGuess(option model.Drillable) bool {
	_, ok := s.wrong[option.Glyph()]
	return ok
}

// Timer returns the countdown for the active question in timed mode.
// Only typed questions are timed.
func (s *Session) Timer() (Timer, bool) {
	if !s.settings.TimedMode || s.question == nil || s.answered || s.question.MultipleChoice() {
		return Timer{}, false
	}
	return Timer{Seq: s.seq, After: s.cfg.TimeLimit}, true
}

// Live reports whether a timer armed with seq is still current.
func (s *Session) Live(seq uint64) bool {
	return seq == s.seq
}

// Input handles typed text when auto-skip is on. An exact match finishes the
// question as correct, input that can no longer match finishes it as wrong.
func (s *Session) Input(text string) Outcome {
	if !s.typedOpen() || !s.settings.AutoSkip {
		return Outcome{Status: Ignored}
	}
	if generator.Normalize(text) == "" {
		return Outcome{Status: Pending}
	}
	if fb := generator.CheckAnswer(s.question, text); fb.IsCorrect {
		return s.finish(text, fb, true)
	}
	if generator.IsAnswerPrefix(s.question, text) {
		return Outcome{Status: Pending}
	}
	return s.finish(text, generator.CheckAnswer(s.question, text), true)
}

// Submit checks typed text explicitly. Blank input is ignored. The question
// stays on screen until Next is called.
func (s *Session) Submit(text string) Outcome {
	if !s.typedOpen() || generator.Normalize(text) == "" {
		return Outcome{Status: Ignored}
	}
	return s.finish(text, generator.CheckAnswer(s.question, text), false)
}

// Choose answers a multiple-choice question. A wrong option is recorded and
// disabled while the question stays open.
func (s *Session) Choose(option model.Drillable) Outcome {
	if s.question == nil || s.answered || !s.question.MultipleChoice() || option == nil {
		return Outcome{Status: Ignored}
	}
	if s.WrongGuess(option) {
		return Outcome{Status: Ignored}
	}
	fb := generator.CheckAnswer(s.question, option.Glyph())
	if fb.IsCorrect {
		return s.finish(option.Glyph(), fb, true)
	}
	s.rec.RecordAttempt(s.question.Char, option.Glyph(), false)
	s.wrong[option.Glyph()] = struct{}{}
	return Outcome{Status: WrongGuess, Feedback: fb}
}

// Timeout finishes a timed question as wrong if seq is still current.
func (s *Session) Timeout(seq uint64) Outcome {
	if !s.Live(seq) || !s.typedOpen() || !s.settings.TimedMode {
		return Outcome{Status: Ignored}
	}
	fb := generator.CheckAnswer(s.question, TimeoutAnswer)
	fb.IsCorrect = false
	return s.finish(TimeoutAnswer, fb, true)
}

func (s *Session) typedOpen() bool {
	return s.question != nil && !s.answered && !s.question.MultipleChoice()
}

func (s *Session) finish(attempt string, fb model.Feedback, advance bool) Outcome {
	s.rec.RecordAttempt(s.question.Char, attempt, fb.IsCorrect)
	s.answered = true
	s.seq++
	out := Outcome{Status: Incorrect, Feedback: fb}
	delay := s.cfg.IncorrectDelay
	if fb.IsCorrect {
		out.Status = Correct
		delay = s.cfg.CorrectDelay
	}
	if advance {
		out.Advance = &Timer{Seq: s.seq, After: delay}
	}
	return out
}
