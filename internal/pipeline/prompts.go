package pipeline

import (
	"fmt"
	"strings"
)

// SystemPrompter produces the system message that opens every training
// record. All presentation wording lives behind this interface so it can
// change without touching the segmentation logic.
type SystemPrompter interface {
	Personal(selfName, contactName string) string
	Group(selfName, chatName string, participants []string) string
}

// DefaultPrompts is the stock wording.
type DefaultPrompts struct{}

func (DefaultPrompts) Personal(selfName, contactName string) string {
	return fmt.Sprintf("You are %s, chatting with %s. Respond naturally in their conversational style.", selfName, contactName)
}

func (DefaultPrompts) Group(selfName, chatName string, participants []string) string {
	return fmt.Sprintf("You are %s in a group chat '%s' with %s. Respond naturally in the conversational style.", selfName, chatName, strings.Join(participants, ", "))
}
