package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/kanadrill/internal/generator"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
)

type attempt struct {
	glyph   string
	answer  string
	correct bool
}

type fakeRecorder struct {
	attempts     []attempt
	streakResets int
}

func (f *fakeRecorder) RecordAttempt(ch model.Drillable, answer string, isCorrect bool) {
	f.attempts = append(f.attempts, attempt{ch.Glyph(), answer, isCorrect})
}

func (f *fakeRecorder) Snapshot() progress.Snapshot {
	return progress.Snapshot{Mistakes: map[string]model.MistakeRecord{}}
}

func (f *fakeRecorder) ResetStreak() { f.streakResets++ }

var (
	ka  = model.Kana{Char: "か", Romaji: []string{"ka"}}
	chi = model.Kana{Char: "ち", Romaji: []string{"chi", "ti"}}
	sa  = model.Kana{Char: "さ", Romaji: []string{"sa"}}
	ta  = model.Kana{Char: "た", Romaji: []string{"ta"}}
)

func newSession(t *testing.T, s model.Settings, pool ...model.Drillable) (*Session, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	sess := New(generator.NewWithSource(rand.NewSource(7)), rec, DefaultConfig())
	if err := sess.Start(s, pool, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := sess.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	return sess, rec
}

func typed(autoSkip, timed bool) model.Settings {
	return model.Settings{Direction: model.CharToRomaji, AutoSkip: autoSkip, TimedMode: timed}
}

func TestStartRejectsEmptyPool(t *testing.T) {
	sess := New(generator.New(), &fakeRecorder{}, DefaultConfig())
	if err := sess.Start(typed(true, false), nil, nil); !errors.Is(err, ErrNoCharacters) {
		t.Fatalf("expected ErrNoCharacters, got %v", err)
	}
}

func TestStartResetsStreak(t *testing.T) {
	_, rec := newSession(t, typed(true, false), ka)
	if rec.streakResets != 1 {
		t.Fatalf("expected streak reset on start, got %d", rec.streakResets)
	}
}

func TestInputAutoSkip(t *testing.T) {
	sess, rec := newSession(t, typed(true, false), chi)

	if out := sess.Input("c"); out.Status != Pending {
		t.Fatalf("expected pending, got %v", out.Status)
	}
	if out := sess.Input("ch"); out.Status != Pending {
		t.Fatalf("expected pending, got %v", out.Status)
	}
	out := sess.Input("CHI")
	if out.Status != Correct || out.Advance == nil || out.Advance.After != DefaultCorrectDelay {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(rec.attempts) != 1 || !rec.attempts[0].correct {
		t.Fatalf("expected one correct attempt, got %+v", rec.attempts)
	}
	if out := sess.Input("chi"); out.Status != Ignored {
		t.Fatalf("answered question must ignore input, got %v", out.Status)
	}
}

func TestInputNotAPrefixFails(t *testing.T) {
	sess, rec := newSession(t, typed(true, false), chi)
	out := sess.Input("cx")
	if out.Status != Incorrect || out.Advance.After != DefaultIncorrectDelay {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Feedback.CorrectAnswer != "chi / ti" {
		t.Fatalf("unexpected correct answer %q", out.Feedback.CorrectAnswer)
	}
	if rec.attempts[0].answer != "cx" || rec.attempts[0].correct {
		t.Fatalf("unexpected attempt %+v", rec.attempts[0])
	}
}

func TestInputIgnoredWithoutAutoSkip(t *testing.T) {
	sess, rec := newSession(t, typed(false, false), ka)
	if out := sess.Input("ka"); out.Status != Ignored {
		t.Fatalf("expected input to be ignored, got %v", out.Status)
	}
	if out := sess.Submit("  "); out.Status != Ignored {
		t.Fatalf("expected blank submit to be ignored")
	}
	if out := sess.Submit("ga"); out.Status != Incorrect {
		t.Fatalf("expected incorrect submit, got %v", out.Status)
	}
	if len(rec.attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(rec.attempts))
	}
}

func TestSubmitWaitsForNext(t *testing.T) {
	for _, answer := range []string{"ko", "ka"} {
		sess, _ := newSession(t, typed(false, false), ka)
		out := sess.Submit(answer)
		if out.Status == Ignored || out.Advance != nil {
			t.Fatalf("submit %q: expected no advance timer, got status=%v advance=%+v", answer, out.Status, out.Advance)
		}
		if !sess.Answered() {
			t.Fatalf("submit %q: expected question to stay answered", answer)
		}
		if _, err := sess.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
		if sess.Answered() {
			t.Fatalf("expected next to open a new question")
		}
	}

	sess, _ := newSession(t, typed(true, false), ka)
	if out := sess.Submit("ko"); out.Advance != nil {
		t.Fatalf("expected explicit submit to wait even with auto-skip on")
	}
}

func TestChooseWrongGuessThenCorrect(t *testing.T) {
	s := model.Settings{Direction: model.RomajiToChar}
	sess, rec := newSession(t, s, ka, sa, ta)
	q := sess.Question()
	if !q.MultipleChoice() || len(q.Options) != 3 {
		t.Fatalf("expected 3 options, got %+v", q.Options)
	}
	var wrong model.Drillable
	for _, opt := range q.Options {
		if opt.Glyph() != q.Char.Glyph() {
			wrong = opt
			break
		}
	}

	if out := sess.Choose(wrong); out.Status != WrongGuess || out.Advance != nil {
		t.Fatalf("unexpected wrong-guess outcome %+v", out)
	}
	if !sess.WrongGuess(wrong) {
		t.Fatalf("expected option to be disabled")
	}
	if out := sess.Choose(wrong); out.Status != Ignored {
		t.Fatalf("repeated wrong guess must be ignored")
	}
	if out := sess.Choose(q.Char); out.Status != Correct {
		t.Fatalf("expected correct, got %v", out.Status)
	}
	if len(rec.attempts) != 2 || rec.attempts[0].correct || !rec.attempts[1].correct {
		t.Fatalf("unexpected attempts %+v", rec.attempts)
	}
	if out := sess.Submit("ka"); out.Status != Ignored {
		t.Fatalf("typed input must be ignored for multiple choice")
	}
}

func TestTimeoutAndStaleTimers(t *testing.T) {
	sess, rec := newSession(t, typed(false, true), ka)
	timer, ok := sess.Timer()
	if !ok || timer.After != 2*time.Second {
		t.Fatalf("expected 2s timer, got %+v ok=%v", timer, ok)
	}

	if out := sess.Timeout(timer.Seq - 1); out.Status != Ignored {
		t.Fatalf("stale timer must be ignored")
	}
	out := sess.Timeout(timer.Seq)
	if out.Status != Incorrect || rec.attempts[0].answer != TimeoutAnswer {
		t.Fatalf("unexpected timeout outcome %+v %+v", out, rec.attempts)
	}
	if sess.Live(timer.Seq) {
		t.Fatalf("answering must invalidate the countdown")
	}
	if !sess.Live(out.Advance.Seq) {
		t.Fatalf("advance timer should be live")
	}
	if _, err := sess.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if sess.Live(out.Advance.Seq) {
		t.Fatalf("manual advance must cancel the pending auto-advance")
	}
}

func TestTimerOnlyForTypedQuestions(t *testing.T) {
	s := model.Settings{Direction: model.RomajiToChar, TimedMode: true}
	sess, _ := newSession(t, s, ka, sa)
	if _, ok := sess.Timer(); ok {
		t.Fatalf("multiple choice questions are not timed")
	}
}
