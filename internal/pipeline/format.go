package pipeline

import (
	"sort"
	"strings"

	"github.com/Bigghis/chat-like-me/internal/telegram"
)

// Message roles in the training format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message of a training record. The system
// message carries no name; every other message names its sender.
type ChatMessage struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// TrainingRecord is one fine-tuning example: a system message followed by
// one message per turn of a conversation.
type TrainingRecord struct {
	Messages []ChatMessage `json:"messages"`
}

// Formatter renders conversations into training records.
type Formatter struct {
	SelfName string
	Prompts  SystemPrompter
}

// Format renders one conversation. Turns whose combined text trims to
// empty are skipped; every remaining turn becomes one message, assistant
// when the sender is the self name, user otherwise.
func (f Formatter) Format(conv Conversation, contactName, chatType string) TrainingRecord {
	var system string
	if chatType == telegram.KindPersonal {
		system = f.Prompts.Personal(f.SelfName, contactName)
	} else {
		system = f.Prompts.Group(f.SelfName, contactName, f.participants(conv))
	}

	messages := []ChatMessage{{Role: RoleSystem, Content: system}}

	for _, turn := range conv.Turns {
		parts := make([]string, 0, len(turn.Messages))
		for _, m := range turn.Messages {
			parts = append(parts, m.Text.String())
		}
		content := strings.TrimSpace(strings.Join(parts, " "))
		if content == "" {
			continue
		}

		role := RoleUser
		if turn.Sender == f.SelfName {
			role = RoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Name: turn.Sender, Content: content})
	}

	return TrainingRecord{Messages: messages}
}

// participants is the sorted set of senders in the conversation, excluding
// the self name. Used for the group system prompt.
func (f Formatter) participants(conv Conversation) []string {
	seen := make(map[string]bool)
	for _, turn := range conv.Turns {
		for _, m := range turn.Messages {
			if m.From != "" && m.From != f.SelfName {
				seen[m.From] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
