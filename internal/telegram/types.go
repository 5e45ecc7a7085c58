package telegram

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Chat kinds as they appear in Telegram export documents.
const (
	KindPersonal   = "personal_chat"
	KindGroup      = "private_group"
	KindSupergroup = "private_supergroup"
)

// Chat is one contact's or group's full history in an export document.
// Read-only input to the pipeline.
type Chat struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Messages []Message `json:"messages"`
}

// Message is a single message record. Fields absent from the export decode
// to their zero values; downstream code depends on those defaults.
type Message struct {
	ID   int64       `json:"id"`
	Type string      `json:"type"` // "message" or "service"
	From string      `json:"from"`
	Date UnixSeconds `json:"date_unixtime"`
	Text TextContent `json:"text"`
}

// UnixSeconds is a unix timestamp that Telegram exports serialize as a
// quoted string ("1690000000") but older tooling writes as a bare number.
// Absent or unparseable values decode to 0 — a deliberate leniency: a zero
// timestamp can merge distant messages into one turn, which callers accept
// rather than guessing a time.
type UnixSeconds int64

func (u *UnixSeconds) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*u = UnixSeconds(n)
		return nil
	}

	*u = 0
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			*u = UnixSeconds(n)
		}
	}
	return nil
}

// TextContent is the export's heterogeneous text field: either a plain
// string or an ordered list of entity fragments, where each fragment is a
// bare string or an object carrying a "text" field.
type TextContent struct {
	plain     string
	fragments []string
	list      bool
}

// Plain builds a plain-string text value. Test and catalog helper.
func Plain(s string) TextContent {
	return TextContent{plain: s}
}

// Fragments builds a fragment-list text value.
func Fragments(parts ...string) TextContent {
	return TextContent{fragments: parts, list: true}
}

func (t *TextContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TextContent{plain: s}
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		// Unknown shape decodes to empty text rather than failing the chat.
		*t = TextContent{}
		return nil
	}

	out := TextContent{list: true}
	for _, raw := range entries {
		var frag string
		if err := json.Unmarshal(raw, &frag); err == nil {
			out.fragments = append(out.fragments, frag)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			out.fragments = append(out.fragments, obj.Text)
		}
	}
	*t = out
	return nil
}

// String returns the plain text: the string itself, or the fragments
// concatenated in order with no separator.
func (t TextContent) String() string {
	if !t.list {
		return t.plain
	}
	var sb strings.Builder
	for _, f := range t.fragments {
		sb.WriteString(f)
	}
	return sb.String()
}
