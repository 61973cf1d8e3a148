// Package tui provides the Bubble Tea drill interface.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kanadrill/internal/feedback"
	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
	"github.com/verte-zerg/kanadrill/internal/session"
	statsPkg "github.com/verte-zerg/kanadrill/internal/stats"
)

const (
	historyLimit = 30
	barWidth     = 10
)

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	fairStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	promptStyle    = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	optionStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Snapshotter exposes the progress state shown in the footer.
type Snapshotter interface {
	Snapshot() progress.Snapshot
}

// Options wires the drill to its sound and speech sinks.
type Options struct {
	Player  feedback.Player
	Speaker feedback.Speaker
	Log     *logger.Logger
}

type advanceMsg struct{ seq uint64 }

type timeoutMsg struct{ seq uint64 }

// Model implements the Bubble Tea drill UI.
type Model struct {
	sess     *session.Session
	progress Snapshotter
	player   feedback.Player
	speaker  feedback.Speaker
	log      *logger.Logger
	settings model.Settings

	input    textinput.Model
	question *model.Question
	last     session.Outcome
	attempt  string
	chosen   string
	timedOut bool
	errMsg   string

	width  int
	height int
}

// NewModel constructs a drill model over a started session.
func NewModel(sess *session.Session, progress Snapshotter, opts Options) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "romaji"
	input.CharLimit = 32
	input.Width = 20

	m := &Model{
		sess:     sess,
		progress: progress,
		player:   opts.Player,
		speaker:  opts.Speaker,
		log:      opts.Log,
		settings: sess.Settings(),
		input:    input,
	}
	if m.player == nil {
		m.player = feedback.Noop{}
	}
	if m.speaker == nil {
		m.speaker = feedback.Noop{}
	}
	if m.log == nil {
		m.log = logger.NewNop()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.next())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case advanceMsg:
		if !m.sess.Live(msg.seq) {
			return m, nil
		}
		return m, m.next()
	case timeoutMsg:
		out := m.sess.Timeout(msg.seq)
		m.timedOut = out.Status != session.Ignored
		return m, m.handle(out)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	}
	if m.question == nil {
		if msg.String() == "q" {
			return tea.Quit
		}
		return nil
	}
	if m.sess.Answered() {
		if msg.Type == tea.KeyEnter {
			return m.next()
		}
		return nil
	}
	if m.question.MultipleChoice() {
		return m.handleChoice(msg.String())
	}
	if msg.Type == tea.KeyEnter {
		m.attempt = m.input.Value()
		return m.handle(m.sess.Submit(m.attempt))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.attempt = m.input.Value()
	return tea.Batch(cmd, m.handle(m.sess.Input(m.attempt)))
}

func (m *Model) handleChoice(key string) tea.Cmd {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 1 || idx > len(m.question.Options) {
		return nil
	}
	option := m.question.Options[idx-1]
	if m.sess.WrongGuess(option) {
		return nil
	}
	m.play(feedback.ToneClick)
	m.chosen = option.Glyph()
	return m.handle(m.sess.Choose(option))
}

// next moves to a fresh question. Any pending advance or timeout goes stale.
func (m *Model) next() tea.Cmd {
	m.last = session.Outcome{}
	m.attempt = ""
	m.chosen = ""
	m.timedOut = false
	m.input.Reset()

	q, err := m.sess.Next()
	if err != nil {
		m.question = nil
		m.errMsg = "No characters selected. Pick some with `kanadrill select`."
		m.log.Warn("no question available", "error", err)
		return nil
	}
	m.question = q
	m.errMsg = ""

	var cmds []tea.Cmd
	if q.MultipleChoice() {
		m.input.Blur()
		m.speak(q.Prompt)
	} else {
		cmds = append(cmds, m.input.Focus())
	}
	if t, ok := m.sess.Timer(); ok {
		cmds = append(cmds, after(t, func(seq uint64) tea.Msg { return timeoutMsg{seq: seq} }))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handle(out session.Outcome) tea.Cmd {
	glyph := ""
	if m.question != nil && m.question.Char != nil {
		glyph = m.question.Char.Glyph()
	}
	switch out.Status {
	case session.Correct:
		m.play(feedback.ToneCorrect)
		m.speak(glyph)
	case session.Incorrect:
		m.play(feedback.ToneIncorrect)
		if m.question != nil && !m.question.MultipleChoice() {
			m.speak(glyph)
		}
	case session.WrongGuess:
		m.play(feedback.ToneIncorrect)
	default:
		return nil
	}
	m.last = out
	m.input.Blur()
	if out.Advance == nil {
		return nil
	}
	return after(*out.Advance, func(seq uint64) tea.Msg { return advanceMsg{seq: seq} })
}

func after(t session.Timer, msg func(uint64) tea.Msg) tea.Cmd {
	return tea.Tick(t.After, func(time.Time) tea.Msg {
		return msg(t.Seq)
	})
}

func (m *Model) play(t feedback.Tone) {
	if m.settings.SoundEffects {
		m.player.Play(t)
	}
}

func (m *Model) speak(text string) {
	if m.settings.Speech && text != "" {
		m.speaker.Speak(text)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.question == nil {
		content = incorrectStyle.Render(m.errMsg) + "\n" + footerStyle.Render("q: quit")
	} else {
		content = m.renderQuestion()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderQuestion() string {
	q := m.question
	card := promptStyle
	switch m.last.Status {
	case session.Correct:
		card = card.BorderForeground(correctStyle.GetForeground())
	case session.Incorrect, session.WrongGuess:
		card = card.BorderForeground(incorrectStyle.GetForeground())
	}
	parts := []string{footerStyle.Render(m.renderHeader()), card.Render(q.Prompt)}
	if q.Hint != "" {
		parts = append(parts, pendingStyle.Render(q.Hint))
	}
	if q.MultipleChoice() {
		parts = append(parts, m.renderOptions())
	} else if m.sess.Answered() {
		parts = append(parts, "> "+renderStyledRunes(buildInputRunes(m.attempt, q.Answers, false)))
	} else {
		parts = append(parts, m.input.View())
	}
	if line := m.renderFeedback(); line != "" {
		parts = append(parts, line)
	}
	if strip := m.renderHistory(); strip != "" {
		parts = append(parts, strip)
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m *Model) renderHeader() string {
	sets := make([]string, 0, len(m.settings.SelectedSets))
	for _, name := range m.settings.SelectedSets {
		sets = append(sets, strings.ToUpper(name[:1])+name[1:])
	}
	dir := "char → romaji"
	if m.settings.Direction == model.RomajiToChar {
		dir = "romaji → char"
	}
	header := strings.Join(sets, ", ") + " · " + dir
	if m.settings.TimedMode {
		header += " · timed"
	}
	return header
}

func (m *Model) renderOptions() string {
	cells := make([]string, 0, len(m.question.Options))
	for i, opt := range m.question.Options {
		style := optionStyle
		switch {
		case m.sess.WrongGuess(opt):
			style = style.Foreground(incorrectStyle.GetForeground()).Strikethrough(true)
		case m.last.Status == session.Correct && opt.Glyph() == m.chosen:
			style = style.Foreground(correctStyle.GetForeground()).BorderForeground(correctStyle.GetForeground())
		}
		cells = append(cells, style.Render(fmt.Sprintf("%d %s", i+1, opt.Glyph())))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) renderFeedback() string {
	fb := m.last.Feedback
	switch m.last.Status {
	case session.Correct:
		return correctStyle.Render("Correct!")
	case session.Incorrect:
		line := "Answer: " + fb.CorrectAnswer
		if fb.CorrectReading != "" {
			line += " (" + fb.CorrectReading + ")"
		}
		if m.timedOut {
			line = "Time's up. " + line
		}
		return incorrectStyle.Render(line) + footerStyle.Render("  enter: next")
	case session.WrongGuess:
		return incorrectStyle.Render("Try again")
	}
	return ""
}

func (m *Model) renderHistory() string {
	if m.progress == nil {
		return ""
	}
	runes := buildHistoryRunes(m.progress.Snapshot().History, historyLimit)
	if len(runes) == 0 {
		return ""
	}
	width := int(float64(m.width) * 0.70)
	return wrapStyledRunes(runes, width)
}

func (m *Model) renderFooter() string {
	if m.progress == nil {
		return ""
	}
	report := statsPkg.BuildReport(m.progress.Snapshot(), nil)
	segments := []string{fmt.Sprintf("Streak %d", report.Streak)}
	if report.RecentCount > 0 {
		segments = append(segments, fmt.Sprintf("Last %d %s %.0f%%", report.RecentCount, progressBar(report.Recent), report.Recent))
	}
	if report.Attempts > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% (%d/%d)", report.Accuracy(), report.Correct, report.Attempts))
	}
	segments = append(segments, fmt.Sprintf("Seen %d", report.UniqueSeen), "esc: quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}

func progressBar(accuracy float64) string {
	filled := int(accuracy / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	style := incorrectStyle
	switch statsPkg.AccuracyLevel(accuracy, true) {
	case statsPkg.LevelGood:
		style = correctStyle
	case statsPkg.LevelFair:
		style = fairStyle
	}
	return style.Render(strings.Repeat("█", filled)) + pendingStyle.Render(strings.Repeat("░", barWidth-filled))
}
