package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bigghis/chat-like-me/internal/pipeline"
)

// Summary is the record of one prepare run: what went in, what came out,
// and the per-chat pipeline diagnostics.
type Summary struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Input      string         `json:"input"`
	Output     string         `json:"output"`
	Stats      pipeline.Stats `json:"stats"`
}

// Format renders a summary as plain text for the terminal.
func Format(s Summary) string {
	var sb strings.Builder
	sb.WriteString("\n=== Run Summary ===\n")
	fmt.Fprintf(&sb, "Run ID: %s\n", s.Stats.RunID)
	fmt.Fprintf(&sb, "Chats: %d loaded, %d kept\n", s.Stats.ChatsLoaded, s.Stats.ChatsKept)
	fmt.Fprintf(&sb, "Training examples: %d\n", s.Stats.Records)
	fmt.Fprintf(&sb, "Total messages: %d\n", s.Stats.RecordMessages)
	if s.Stats.Records > 0 {
		fmt.Fprintf(&sb, "Avg messages per example: %.1f\n",
			float64(s.Stats.RecordMessages)/float64(s.Stats.Records))
	}
	fmt.Fprintf(&sb, "Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))

	for _, c := range s.Stats.Chats {
		fmt.Fprintf(&sb, "  - %s [%s]: %d/%d valid, %d turns, %d conversations, %d examples\n",
			c.Name, c.Type, c.ValidMessages, c.Messages, c.Turns, c.Conversations, c.Records)
	}

	return sb.String()
}

// Save persists the summary as indented JSON.
func (s Summary) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
