package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Bigghis/chat-like-me/internal/config"
	"github.com/Bigghis/chat-like-me/internal/jsonl"
	"github.com/Bigghis/chat-like-me/internal/pipeline"
	"github.com/Bigghis/chat-like-me/internal/report"
	"github.com/Bigghis/chat-like-me/internal/telegram"
)

const usage = `chatlikeme — turn a Telegram chat export into fine-tuning data

Usage:
  chatlikeme prepare [flags]   build training JSONL from an export
  chatlikeme chats [flags]     list and filter the chats in an export
  chatlikeme extract [flags]   pull a single chat into its own JSON file

Run "chatlikeme <command> -h" for the command's flags.
`

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "prepare":
		err = runPrepare(cfg, os.Args[2:])
	case "chats":
		err = runChats(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runPrepare(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	input := fs.String("input", "result.json", "Telegram export JSON file")
	output := fs.String("output", "training_data.jsonl", "output JSONL file")
	minMessages := fs.Int("min-messages", cfg.MinMessages, "minimum messages for a chat to be included")
	turnWindow := fs.Int("turn-window", cfg.TurnWindowMinutes, "minutes grouping same-sender messages into one turn")
	conversationGap := fs.Int("conversation-gap", cfg.ConversationGapMinutes, "minutes of silence separating conversations")
	selfName := fs.String("self-name", cfg.SelfName, "your name in the chats (labeled assistant)")
	includeGroups := fs.Bool("include-groups", cfg.IncludeGroups, "include group chats")
	workers := fs.Int("workers", cfg.Workers, "chats processed in parallel")
	summaryPath := fs.String("summary", "", "optional run summary JSON file")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now().UTC()

	chats, err := telegram.ReadChats(*input)
	if err != nil {
		return err
	}
	slog.Info("export loaded", "input", *input, "chats", len(chats))

	p := pipeline.New(pipeline.Config{
		MinMessages:     *minMessages,
		TurnWindow:      time.Duration(*turnWindow) * time.Minute,
		ConversationGap: time.Duration(*conversationGap) * time.Minute,
		SelfName:        *selfName,
		IncludeGroups:   *includeGroups,
		Workers:         *workers,
	}, slog.Default())

	records, stats, err := p.Run(ctx, chats)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		slog.Warn("no training examples generated; check the export and thresholds",
			"chats_kept", stats.ChatsKept,
		)
		return nil
	}

	if err := jsonl.WriteFile(*output, records); err != nil {
		return err
	}
	slog.Info("training data written", "output", *output, "records", len(records))

	sum := report.Summary{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Input:      *input,
		Output:     *output,
		Stats:      stats,
	}
	fmt.Print(report.Format(sum))

	if *summaryPath != "" {
		if err := sum.Save(*summaryPath); err != nil {
			return err
		}
		slog.Info("summary written", "path", *summaryPath)
	}

	return nil
}

func runChats(args []string) error {
	fs := flag.NewFlagSet("chats", flag.ExitOnError)
	input := fs.String("input", "result.json", "Telegram export JSON file")
	name := fs.String("name", "", "filter by name (substring, case-insensitive)")
	typ := fs.String("type", "", "filter by chat type (e.g. personal_chat)")
	id := fs.Int64("id", 0, "filter by chat id")
	full := fs.Bool("full", false, "print matches as JSON instead of a table")
	output := fs.String("output", "", "write matches to a JSON file")
	fs.Parse(args)

	chats, err := telegram.ReadChats(*input)
	if err != nil {
		return err
	}

	q := telegram.Query{Name: *name, Type: *typ}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "id" {
			q.ID = *id
			q.HasID = true
		}
	})

	infos := telegram.Overview(telegram.Filter(chats, q))
	if len(infos) == 0 {
		fmt.Println("No chats found matching the criteria.")
		return nil
	}

	if *full {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(infos); err != nil {
			return fmt.Errorf("encode chats: %w", err)
		}
	} else {
		line := strings.Repeat("-", 80)
		fmt.Printf("Total chats found: %d\n\n", len(infos))
		fmt.Println(line)
		fmt.Printf("%-40s %-20s %-15s\n", "Name", "Type", "ID")
		fmt.Println(line)
		for _, in := range infos {
			fmt.Printf("%-40s %-20s %-15d\n", in.Name, in.Type, in.ID)
		}
	}

	if *output != "" {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal chats: %w", err)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", *output, err)
		}
		slog.Info("chat list written", "path", *output, "chats", len(infos))
	}

	return nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	input := fs.String("input", "result.json", "Telegram export JSON file")
	id := fs.Int64("id", 0, "chat id to extract")
	output := fs.String("output", "", "output file (default conversation_<id>.json)")
	list := fs.Bool("list", false, "list available chats instead of extracting")
	fs.Parse(args)

	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}

	if *list {
		chats, err := telegram.LoadChats(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", *input, err)
		}
		printCatalog(telegram.Overview(chats))
		return nil
	}

	raw, ok, err := telegram.RawChat(data, *id)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *input, err)
	}
	if !ok {
		return fmt.Errorf("chat %d not found in %s", *id, *input)
	}

	out := *output
	if out == "" {
		out = fmt.Sprintf("conversation_%d.json", *id)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent chat: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	slog.Info("chat extracted", "id", *id, "output", out)
	return nil
}

func printCatalog(infos []telegram.Info) {
	fmt.Printf("Found %d conversations:\n\n", len(infos))
	fmt.Printf("%-15s %-20s %-40s %s\n", "ID", "Type", "Name", "Messages")
	fmt.Println(strings.Repeat("-", 90))
	for _, in := range infos {
		name := in.Name
		if r := []rune(name); len(r) > 37 {
			name = string(r[:37]) + "..."
		}
		fmt.Printf("%-15d %-20s %-40s %d\n", in.ID, in.Type, name, in.Messages)
	}
}

func setupLogging(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
