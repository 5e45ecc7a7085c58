package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/Bigghis/chat-like-me/internal/telegram"
)

// automatedSenders are official accounts whose messages carry no personal
// voice worth training on.
var automatedSenders = map[string]bool{
	"Telegram": true,
	"Group":    true,
	"Channel":  true,
}

// Valid reports whether a message is usable as training material: a real
// message (not a service event), from a non-automated sender, with at
// least two characters of text. Malformed messages are invalid, never an
// error.
func Valid(m telegram.Message) bool {
	if m.Type != "message" {
		return false
	}

	text := strings.TrimSpace(m.Text.String())
	if text == "" {
		return false
	}

	if automatedSenders[m.From] {
		return false
	}

	// Media-only messages usually decode to a single placeholder character.
	if utf8.RuneCountInString(text) < 2 {
		return false
	}

	return true
}

// FilterValid keeps only training-usable messages, preserving order.
func FilterValid(msgs []telegram.Message) []telegram.Message {
	var out []telegram.Message
	for _, m := range msgs {
		if Valid(m) {
			out = append(out, m)
		}
	}
	return out
}
