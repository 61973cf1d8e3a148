// Package feedback plays answer tones and speaks readings.
package feedback

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/verte-zerg/kanadrill/internal/logger"
)

// Tone is a short sound cue.
type Tone struct {
	Name string
	Freq float64
}

// Cues used by the drill.
var (
	ToneCorrect   = Tone{Name: "correct", Freq: 523.25}
	ToneIncorrect = Tone{Name: "incorrect", Freq: 130.81}
	ToneClick     = Tone{Name: "click", Freq: 783.99}
)

// Player plays tones.
type Player interface {
	Play(t Tone)
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(text string)
}

// Noop discards every cue.
type Noop struct{}

func (Noop) Play(Tone)    {}
func (Noop) Speak(string) {}

// Bell rings the terminal bell for mistakes and stays quiet otherwise.
type Bell struct {
	W io.Writer
}

func (b Bell) Play(t Tone) {
	if t != ToneIncorrect || b.W == nil {
		return
	}
	_, _ = io.WriteString(b.W, "\a")
}

// Command runs an external program for each cue. The template is split on
// whitespace and {freq}, {tone} and {text} are substituted per argument.
type Command struct {
	args []string
	log  *logger.Logger
	// cancelPrevious kills a still-running invocation before starting another.
	cancelPrevious bool

	mu      sync.Mutex
	running *exec.Cmd
}

// NewToneCommand builds a Player from a command template.
func NewToneCommand(template string, log *logger.Logger) (*Command, error) {
	return newCommand(template, false, log)
}

// NewSpeechCommand builds a Speaker from a command template. A new utterance
// stops the previous one.
func NewSpeechCommand(template string, log *logger.Logger) (*Command, error) {
	return newCommand(template, true, log)
}

func newCommand(template string, cancelPrevious bool, log *logger.Logger) (*Command, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, fmt.Errorf("feedback command is empty")
	}
	return &Command{args: args, log: log.With("component", "feedback"), cancelPrevious: cancelPrevious}, nil
}

// Play runs the command for a tone.
func (c *Command) Play(t Tone) {
	c.run(map[string]string{
		"{freq}": strconv.FormatFloat(t.Freq, 'f', 2, 64),
		"{tone}": t.Name,
	})
}

// Speak runs the command for text.
func (c *Command) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.run(map[string]string{"{text}": text})
}

// Expand returns the argument list for the given substitutions.
func (c *Command) Expand(vars map[string]string) []string {
	out := make([]string, len(c.args))
	for i, a := range c.args {
		for k, v := range vars {
			a = strings.ReplaceAll(a, k, v)
		}
		out[i] = a
	}
	return out
}

func (c *Command) run(vars map[string]string) {
	args := c.Expand(vars)
	cmd := exec.Command(args[0], args[1:]...)

	c.mu.Lock()
	if c.cancelPrevious && c.running != nil && c.running.Process != nil {
		if err := c.running.Process.Kill(); err != nil {
			// Best-effort: the process may have exited already.
			_ = err
		}
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		c.log.Warn("failed to start feedback command", "cmd", args[0], "error", err)
		return
	}
	c.running = cmd
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		if c.running == cmd {
			c.running = nil
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Debug("feedback command exited", "cmd", args[0], "error", err)
		}
	}()
}
