package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnknownShape is returned when a document matches none of the accepted
// export layouts. Malformed messages inside a recognized document never
// produce an error; only the top-level shape is a hard failure.
var ErrUnknownShape = errors.New("telegram: unrecognized export document shape")

// exportDocument is the full Telegram export root: {"chats":{"list":[...]}}.
type exportDocument struct {
	Chats *struct {
		List []Chat `json:"list"`
	} `json:"chats"`
}

// LoadChats decodes an export document into its chat list. Three layouts
// are accepted transparently:
//
//   - a full export: {"chats":{"list":[Chat,...]}}
//   - a bare chat array: [Chat,...]
//   - a single extracted chat: {"name":..., "messages":[...]}
func LoadChats(data []byte) ([]Chat, error) {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Chats != nil {
		return doc.Chats.List, nil
	}

	var list []Chat
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var probe struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Messages != nil {
		var single Chat
		if err := json.Unmarshal(data, &single); err == nil {
			return []Chat{single}, nil
		}
	}

	return nil, ErrUnknownShape
}

// RawChat returns the original JSON object of the chat with the given id.
// The bytes are preserved verbatim so fields the typed model does not
// carry survive extraction.
func RawChat(data []byte, id int64) (json.RawMessage, bool, error) {
	raws, err := rawChatList(data)
	if err != nil {
		return nil, false, err
	}
	for _, raw := range raws {
		var probe struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.ID == id {
			return raw, true, nil
		}
	}
	return nil, false, nil
}

func rawChatList(data []byte) ([]json.RawMessage, error) {
	var doc struct {
		Chats *struct {
			List []json.RawMessage `json:"list"`
		} `json:"chats"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Chats != nil {
		return doc.Chats.List, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	return nil, ErrUnknownShape
}

// ReadChats loads an export file from disk.
func ReadChats(path string) ([]Chat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	chats, err := LoadChats(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return chats, nil
}
