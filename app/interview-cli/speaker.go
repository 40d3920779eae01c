package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ttsCommands are tried in order when -speak=auto.
var ttsCommands = []string{"say", "espeak-ng", "espeak", "spd-say"}

// commandSpeaker reads assistant messages aloud through a local TTS program
// that takes the text as its last argument.
type commandSpeaker struct {
	name string
	run  func(ctx context.Context, name string, args ...string) error
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// newSpeaker resolves the -speak flag. "" and "off" disable speech, "auto"
// picks the first TTS program on PATH, anything else names the program.
func newSpeaker(choice string, lookPath func(string) (string, error)) (*commandSpeaker, error) {
	switch choice = strings.TrimSpace(choice); choice {
	case "", "off":
		return nil, nil
	case "auto":
		for _, name := range ttsCommands {
			if _, err := lookPath(name); err == nil {
				return &commandSpeaker{name: name, run: runCommand}, nil
			}
		}
		return nil, fmt.Errorf("no text-to-speech program found (tried %s)", strings.Join(ttsCommands, ", "))
	default:
		if _, err := lookPath(choice); err != nil {
			return nil, fmt.Errorf("text-to-speech program %q: %w", choice, err)
		}
		return &commandSpeaker{name: choice, run: runCommand}, nil
	}
}

func (s *commandSpeaker) Speak(ctx context.Context, text string) error {
	if text = strings.TrimSpace(text); text == "" {
		return nil
	}
	return s.run(ctx, s.name, "--", text)
}
