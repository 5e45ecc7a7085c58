package pipeline

import "github.com/Bigghis/chat-like-me/internal/telegram"

// Turn is a maximal run of consecutive messages from one sender with no
// internal gap above the turn window.
type Turn struct {
	Sender   string
	Messages []telegram.Message
}

// Start is the unix timestamp of the turn's first message.
func (t Turn) Start() int64 { return int64(t.Messages[0].Date) }

// End is the unix timestamp of the turn's last message.
func (t Turn) End() int64 { return int64(t.Messages[len(t.Messages)-1].Date) }

// GroupTurns collapses consecutive same-sender messages into turns. The
// comparison timestamp advances with every appended message, so a dense
// same-sender run can span longer than windowSeconds in total as long as
// no single adjacent gap exceeds it. Messages with missing timestamps
// carry date 0, which can merge distant messages into one turn; that is a
// known property of the input contract, not corrected here.
func GroupTurns(msgs []telegram.Message, windowSeconds int64) []Turn {
	if len(msgs) == 0 {
		return nil
	}

	var turns []Turn
	current := Turn{Sender: msgs[0].From, Messages: []telegram.Message{msgs[0]}}
	last := int64(msgs[0].Date)

	for _, m := range msgs[1:] {
		if m.From == current.Sender && int64(m.Date)-last <= windowSeconds {
			current.Messages = append(current.Messages, m)
		} else {
			turns = append(turns, current)
			current = Turn{Sender: m.From, Messages: []telegram.Message{m}}
		}
		last = int64(m.Date)
	}

	return append(turns, current)
}
