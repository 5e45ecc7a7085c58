package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Bigghis/chat-like-me/internal/telegram"
)

// Config carries the tunables for a pipeline run.
type Config struct {
	MinMessages     int           // chat inclusion threshold, counted on raw messages
	TurnWindow      time.Duration // max gap between same-sender messages in one turn
	ConversationGap time.Duration // idle gap that starts a new conversation
	SelfName        string        // sender whose turns are labeled assistant
	IncludeGroups   bool          // admit private_group and private_supergroup chats
	Workers         int           // per-chat parallelism; <=1 runs sequentially
}

// ChatStats is the per-chat diagnostic view of a run.
type ChatStats struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Messages      int    `json:"messages"`
	ValidMessages int    `json:"valid_messages"`
	Turns         int    `json:"turns"`
	Conversations int    `json:"conversations"`
	Records       int    `json:"records"`
}

// Stats summarizes a run for the caller. The pipeline itself produces no
// side effects; reporting is the caller's job.
type Stats struct {
	RunID          uuid.UUID   `json:"run_id"`
	ChatsLoaded    int         `json:"chats_loaded"`
	ChatsKept      int         `json:"chats_kept"`
	Records        int         `json:"records"`
	RecordMessages int         `json:"record_messages"`
	Chats          []ChatStats `json:"chats"`
}

// Pipeline turns export chats into training records.
type Pipeline struct {
	cfg    Config
	format Formatter
	logger *slog.Logger
}

// New builds a pipeline with the stock prompt wording.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		format: Formatter{SelfName: cfg.SelfName, Prompts: DefaultPrompts{}},
		logger: logger,
	}
}

// Run filters the chat list, segments each kept chat into conversations,
// and aggregates the qualifying training records in chat order then
// conversation order. Output is identical whether chats are processed
// sequentially or in parallel.
func (p *Pipeline) Run(ctx context.Context, chats []telegram.Chat) ([]TrainingRecord, Stats, error) {
	stats := Stats{RunID: uuid.New(), ChatsLoaded: len(chats)}

	kept := p.filterChats(chats)
	stats.ChatsKept = len(kept)

	window := int64(p.cfg.TurnWindow / time.Second)
	gap := int64(p.cfg.ConversationGap / time.Second)

	perChat := make([][]TrainingRecord, len(kept))
	chatStats := make([]ChatStats, len(kept))

	if p.cfg.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Workers)
		for i, chat := range kept {
			i, chat := i, chat
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				perChat[i], chatStats[i] = p.processChat(chat, window, gap)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, Stats{}, err
		}
	} else {
		for i, chat := range kept {
			if err := ctx.Err(); err != nil {
				return nil, Stats{}, err
			}
			perChat[i], chatStats[i] = p.processChat(chat, window, gap)
		}
	}

	var records []TrainingRecord
	for i := range kept {
		records = append(records, perChat[i]...)
	}

	stats.Chats = chatStats
	stats.Records = len(records)
	for _, r := range records {
		stats.RecordMessages += len(r.Messages)
	}

	p.logger.Info("pipeline complete",
		"run_id", stats.RunID,
		"chats_loaded", stats.ChatsLoaded,
		"chats_kept", stats.ChatsKept,
		"records", stats.Records,
	)

	return records, stats, nil
}

// filterChats applies the chat-level filters in order: kind first, then
// raw message volume. The volume count includes messages that later fail
// validity filtering.
func (p *Pipeline) filterChats(chats []telegram.Chat) []telegram.Chat {
	var kept []telegram.Chat
	for _, chat := range chats {
		if !p.includeKind(chat.Type) {
			continue
		}
		raw := 0
		for _, m := range chat.Messages {
			if m.Type == "message" {
				raw++
			}
		}
		if raw < p.cfg.MinMessages {
			p.logger.Debug("chat below message threshold",
				"chat", chat.Name,
				"messages", raw,
				"min", p.cfg.MinMessages,
			)
			continue
		}
		kept = append(kept, chat)
	}
	return kept
}

func (p *Pipeline) includeKind(kind string) bool {
	if kind == telegram.KindPersonal {
		return true
	}
	if !p.cfg.IncludeGroups {
		return false
	}
	return kind == telegram.KindGroup || kind == telegram.KindSupergroup
}

func (p *Pipeline) processChat(chat telegram.Chat, window, gap int64) ([]TrainingRecord, ChatStats) {
	contact := chat.Name
	if contact == "" {
		contact = "Unknown"
	}

	cs := ChatStats{Name: contact, Type: chat.Type, Messages: len(chat.Messages)}

	valid := FilterValid(chat.Messages)
	cs.ValidMessages = len(valid)
	if len(valid) == 0 {
		return nil, cs
	}

	turns := GroupTurns(valid, window)
	cs.Turns = len(turns)

	conversations := GroupConversations(turns, gap)
	cs.Conversations = len(conversations)

	var records []TrainingRecord
	for _, conv := range conversations {
		// A single turn has no back-and-forth to learn from.
		if len(conv.Turns) < 2 {
			continue
		}
		rec := p.format.Format(conv, contact, chat.Type)
		if !hasBothRoles(rec) {
			continue
		}
		records = append(records, rec)
	}
	cs.Records = len(records)

	p.logger.Debug("chat processed",
		"chat", contact,
		"valid_messages", cs.ValidMessages,
		"turns", cs.Turns,
		"conversations", cs.Conversations,
		"records", cs.Records,
	)

	return records, cs
}

func hasBothRoles(rec TrainingRecord) bool {
	var user, assistant bool
	for _, m := range rec.Messages {
		switch m.Role {
		case RoleUser:
			user = true
		case RoleAssistant:
			assistant = true
		}
	}
	return user && assistant
}
