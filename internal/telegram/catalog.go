package telegram

import "strings"

// Info is the catalog view of a chat: enough to find an id without
// printing message bodies.
type Info struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

// Overview summarizes every chat in the document, in document order.
func Overview(chats []Chat) []Info {
	infos := make([]Info, len(chats))
	for i, c := range chats {
		name := c.Name
		if name == "" {
			name = "N/A"
		}
		typ := c.Type
		if typ == "" {
			typ = "N/A"
		}
		infos[i] = Info{
			ID:       c.ID,
			Type:     typ,
			Name:     name,
			Messages: len(c.Messages),
		}
	}
	return infos
}

// Query selects chats from a catalog. Zero-valued criteria are ignored.
type Query struct {
	Name  string // substring match, case-insensitive
	Type  string // exact match
	ID    int64
	HasID bool
}

// Filter applies a query to a chat list, preserving order.
func Filter(chats []Chat, q Query) []Chat {
	var out []Chat
	for _, c := range chats {
		if q.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Type != "" && c.Type != q.Type {
			continue
		}
		if q.HasID && c.ID != q.ID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FindByID returns the chat with the given id, if present.
func FindByID(chats []Chat, id int64) (Chat, bool) {
	for _, c := range chats {
		if c.ID == id {
			return c, true
		}
	}
	return Chat{}, false
}
