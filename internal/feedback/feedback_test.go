package feedback

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/verte-zerg/kanadrill/internal/logger"
)

func TestBellRingsOnlyForMistakes(t *testing.T) {
	var buf bytes.Buffer
	b := Bell{W: &buf}
	b.Play(ToneCorrect)
	b.Play(ToneClick)
	if buf.Len() != 0 {
		t.Fatalf("expected silence, got %q", buf.String())
	}
	b.Play(ToneIncorrect)
	if buf.String() != "\a" {
		t.Fatalf("expected bell, got %q", buf.String())
	}
}

func TestCommandExpand(t *testing.T) {
	c, err := NewToneCommand("play -n synth 0.1 sine {freq} --name={tone}", logger.NewNop())
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	got := c.Expand(map[string]string{"{freq}": "523.25", "{tone}": "correct"})
	want := []string{"play", "-n", "synth", "0.1", "sine", "523.25", "--name=correct"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSpeechTextStaysOneArgument(t *testing.T) {
	c, err := NewSpeechCommand("say -v Kyoko {text}", logger.NewNop())
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	got := c.Expand(map[string]string{"{text}": "みず / スイ"})
	if len(got) != 4 || got[3] != "みず / スイ" {
		t.Fatalf("expected text as a single argument, got %v", got)
	}
}

func TestEmptyTemplate(t *testing.T) {
	if _, err := NewToneCommand("   ", logger.NewNop()); err == nil {
		t.Fatalf("expected error for empty template")
	}
}

func TestMissingBinaryIsLogged(t *testing.T) {
	c, err := NewSpeechCommand("kanadrill-no-such-binary {text}", logger.NewNop())
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	c.Speak("か")
	c.Speak("")
}
