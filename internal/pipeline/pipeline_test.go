package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Bigghis/chat-like-me/internal/telegram"
)

func testConfig() Config {
	return Config{
		MinMessages:     0,
		TurnWindow:      5 * time.Minute,
		ConversationGap: 60 * time.Minute,
		SelfName:        "Pasquale",
	}
}

func personalChat(id int64, name string, msgs ...telegram.Message) telegram.Chat {
	return telegram.Chat{ID: id, Name: name, Type: telegram.KindPersonal, Messages: msgs}
}

func TestRun_PersonalChatEndToEnd(t *testing.T) {
	chat := personalChat(1, "Marco",
		msg("Marco", 0, "hi"),
		msg("Pasquale", 100, "hey"),
	)

	records, stats, err := New(testConfig(), nil).Run(context.Background(), []telegram.Chat{chat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	msgs := records[0].Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem {
		t.Errorf("first message role = %q", msgs[0].Role)
	}
	if msgs[1].Role != RoleUser || msgs[1].Name != "Marco" || msgs[1].Content != "hi" {
		t.Errorf("user message = %+v", msgs[1])
	}
	if msgs[2].Role != RoleAssistant || msgs[2].Name != "Pasquale" || msgs[2].Content != "hey" {
		t.Errorf("assistant message = %+v", msgs[2])
	}

	if stats.ChatsLoaded != 1 || stats.ChatsKept != 1 || stats.Records != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.RunID == uuid.Nil {
		t.Error("run id not set")
	}
}

func TestRun_SingleTurnConversationDropped(t *testing.T) {
	// One dense run from one sender grouping into a single turn: no
	// back-and-forth, no record.
	chat := personalChat(1, "Marco",
		msg("Marco", 0, "ciao"),
		msg("Marco", 10, "ci sei?"),
		msg("Marco", 20, "vabbè scrivimi"),
	)

	records, _, err := New(testConfig(), nil).Run(context.Background(), []telegram.Chat{chat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records for a single-turn chat, got %d", len(records))
	}
}

func TestRun_RequiresBothRoles(t *testing.T) {
	// Two turns, both from the contact (split by the window): no
	// assistant message, so the record is dropped.
	chat := personalChat(1, "Marco",
		msg("Marco", 0, "ciao"),
		msg("Marco", 400, "ci sei?"),
	)

	records, _, err := New(testConfig(), nil).Run(context.Background(), []telegram.Chat{chat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records without both roles, got %d", len(records))
	}
}

func TestRun_MinMessagesExcludesChatEntirely(t *testing.T) {
	msgs := make([]telegram.Message, 0, 25)
	for i := 0; i < 25; i++ {
		from := "Marco"
		if i%2 == 1 {
			from = "Pasquale"
		}
		msgs = append(msgs, msg(from, int64(i*10), fmt.Sprintf("messaggio %d", i)))
	}

	cfg := testConfig()
	cfg.MinMessages = 30

	records, stats, err := New(cfg, nil).Run(context.Background(), []telegram.Chat{personalChat(1, "Marco", msgs...)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
	if stats.ChatsKept != 0 {
		t.Errorf("chat should be excluded before processing, kept = %d", stats.ChatsKept)
	}
}

func TestRun_MinMessagesCountsRawMessages(t *testing.T) {
	// The volume filter counts type == "message" before validity
	// filtering, so short texts still count toward the threshold.
	chat := personalChat(1, "Marco",
		msg("Marco", 0, "k"), // invalid for training, counted for volume
		msg("Marco", 10, "ciao"),
		msg("Pasquale", 20, "ehi"),
	)

	cfg := testConfig()
	cfg.MinMessages = 3

	_, stats, err := New(cfg, nil).Run(context.Background(), []telegram.Chat{chat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ChatsKept != 1 {
		t.Fatalf("expected chat kept on raw count, kept = %d", stats.ChatsKept)
	}
}

func TestRun_GroupChatsRequireFlag(t *testing.T) {
	group := telegram.Chat{
		ID: 2, Name: "Calcetto", Type: telegram.KindGroup,
		Messages: []telegram.Message{
			msg("Sara", 0, "chi viene?"),
			msg("Pasquale", 100, "io ci sono"),
		},
	}
	service := telegram.Chat{ID: 3, Name: "Novità", Type: "saved_messages"}

	cfg := testConfig()

	records, stats, err := New(cfg, nil).Run(context.Background(), []telegram.Chat{group, service})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 || stats.ChatsKept != 0 {
		t.Fatalf("groups should be excluded by default, got %d records", len(records))
	}

	cfg.IncludeGroups = true
	records, stats, err = New(cfg, nil).Run(context.Background(), []telegram.Chat{group, service})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ChatsKept != 1 {
		t.Fatalf("expected group kept with flag, kept = %d", stats.ChatsKept)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestRun_PreservesChatThenConversationOrder(t *testing.T) {
	chatA := personalChat(1, "Marco",
		msg("Marco", 0, "prima conversazione"),
		msg("Pasquale", 100, "sì"),
		msg("Marco", 100+7200, "seconda conversazione"),
		msg("Pasquale", 200+7200, "certo"),
	)
	chatB := personalChat(2, "Sara",
		msg("Sara", 0, "ciao ciao"),
		msg("Pasquale", 50, "ehi"),
	)

	records, _, err := New(testConfig(), nil).Run(context.Background(), []telegram.Chat{chatA, chatB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	if got := records[0].Messages[1].Content; got != "prima conversazione" {
		t.Errorf("records[0] starts with %q", got)
	}
	if got := records[1].Messages[1].Content; got != "seconda conversazione" {
		t.Errorf("records[1] starts with %q", got)
	}
	if got := records[2].Messages[1].Name; got != "Sara" {
		t.Errorf("records[2] from %q, want Sara", got)
	}
}

func TestRun_SegmentationRoundTrip(t *testing.T) {
	// Flattening all turns of all conversations reproduces the valid
	// message subsequence, in order, with nothing lost.
	var msgs []telegram.Message
	senders := []string{"Marco", "Pasquale"}
	for i := 0; i < 40; i++ {
		// Jump an hour and a half every 10 messages to force splits.
		ts := int64(i*60 + (i/10)*5400)
		msgs = append(msgs, msg(senders[i%2], ts, fmt.Sprintf("messaggio numero %d", i)))
	}

	valid := FilterValid(msgs)
	turns := GroupTurns(valid, 300)
	convs := GroupConversations(turns, 3600)

	var flat []telegram.Message
	for _, conv := range convs {
		for _, turn := range conv.Turns {
			flat = append(flat, turn.Messages...)
		}
	}

	if !reflect.DeepEqual(flat, valid) {
		t.Fatalf("round trip lost or reordered messages: %d in, %d out", len(valid), len(flat))
	}
}

func TestRun_Idempotent(t *testing.T) {
	chats := []telegram.Chat{
		personalChat(1, "Marco",
			msg("Marco", 0, "ciao"),
			msg("Pasquale", 100, "ehi"),
			msg("Marco", 200, "che fai stasera?"),
		),
	}

	p := New(testConfig(), nil)

	first, _, err := p.Run(context.Background(), chats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := p.Run(context.Background(), chats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("output differs between runs:\n%s\n%s", a, b)
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	var chats []telegram.Chat
	for c := 0; c < 8; c++ {
		var msgs []telegram.Message
		for i := 0; i < 30; i++ {
			from := fmt.Sprintf("Contatto%d", c)
			if i%2 == 1 {
				from = "Pasquale"
			}
			ts := int64(i*120 + (i/12)*9000)
			msgs = append(msgs, msg(from, ts, fmt.Sprintf("chat %d messaggio %d", c, i)))
		}
		chats = append(chats, personalChat(int64(c), fmt.Sprintf("Contatto%d", c), msgs...))
	}

	seq, _, err := New(testConfig(), nil).Run(context.Background(), chats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := testConfig()
	cfg.Workers = 4
	par, _, err := New(cfg, nil).Run(context.Background(), chats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(seq, par) {
		t.Fatal("parallel output differs from sequential")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chats := []telegram.Chat{personalChat(1, "Marco", msg("Marco", 0, "ciao"), msg("Pasquale", 10, "ehi"))}

	if _, _, err := New(testConfig(), nil).Run(ctx, chats); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
