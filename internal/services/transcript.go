package services

import (
	"fmt"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

// FormatTranscript renders messages the way the scoring prompt expects
// them: one "- role: content" line per message.
func FormatTranscript(msgs []models.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&sb, "- %s: %s\n", m.Role, m.Content)
	}
	return sb.String()
}

// RenderTranscript is the human-readable export format.
func RenderTranscript(title string, msgs []models.Message) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for i, m := range msgs {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, strings.ToUpper(string(m.Role)), m.Content)
	}
	return sb.String()
}
