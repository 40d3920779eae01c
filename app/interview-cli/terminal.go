package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/session"
)

// terminal stands in for the browser: messages are printed, and typed
// lines answer the manual prompt.
type terminal struct {
	out io.Writer

	mu    sync.Mutex
	lines chan string
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	t := &terminal{out: out, lines: make(chan string)}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			t.lines <- sc.Text()
		}
		close(t.lines)
	}()
	return t
}

func (t *terminal) Prompt(ctx context.Context, question string) (string, error) {
	t.printf("%s ", question)
	select {
	case line, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Speak is the silent default; OnMessage already printed the text. Run with
// -speak to read messages aloud instead.
func (t *terminal) Speak(context.Context, string) error { return nil }

func (t *terminal) OnStatus(s session.Status) {
	t.printf("[%s]\n", s)
}

func (t *terminal) OnMessage(m models.Message) {
	name := "You"
	if m.Role == models.RoleAssistant {
		name = "Interviewer"
	}
	t.printf("%s: %s\n", name, strings.TrimSpace(m.Content))
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func printFeedback(w io.Writer, fb *models.Feedback) {
	fmt.Fprintf(w, "\nOverall: %d/100\n", fb.TotalScore)
	for _, c := range fb.CategoryScores {
		fmt.Fprintf(w, "  %-22s %3d  %s\n", c.Name, c.Score, c.Comment)
	}
	if len(fb.Strengths) > 0 {
		fmt.Fprintf(w, "Strengths:\n")
		for _, s := range fb.Strengths {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if len(fb.AreasForImprovement) > 0 {
		fmt.Fprintf(w, "Areas for improvement:\n")
		for _, s := range fb.AreasForImprovement {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	fmt.Fprintf(w, "%s\n", fb.FinalAssessment)
}
