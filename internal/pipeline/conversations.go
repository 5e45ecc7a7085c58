package pipeline

// Conversation is a maximal run of consecutive turns with no inter-turn
// gap above the conversation gap threshold.
type Conversation struct {
	Turns []Turn
}

// GroupConversations splits an ordered turn sequence into conversations
// wherever the idle gap between the end of one turn and the start of the
// next exceeds gapSeconds.
func GroupConversations(turns []Turn, gapSeconds int64) []Conversation {
	if len(turns) == 0 {
		return nil
	}

	var convs []Conversation
	current := Conversation{Turns: []Turn{turns[0]}}

	for _, t := range turns[1:] {
		prev := current.Turns[len(current.Turns)-1]
		if t.Start()-prev.End() <= gapSeconds {
			current.Turns = append(current.Turns, t)
		} else {
			convs = append(convs, current)
			current = Conversation{Turns: []Turn{t}}
		}
	}

	return append(convs, current)
}
