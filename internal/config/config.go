package config

import (
	"os"
	"strconv"
)

// Config holds environment-level defaults for the CLI. Command flags
// override every field.
type Config struct {
	LogLevel               string
	LogFormat              string
	SelfName               string
	MinMessages            int
	TurnWindowMinutes      int
	ConversationGapMinutes int
	IncludeGroups          bool
	Workers                int
}

func Load() Config {
	return Config{
		LogLevel:               envStr("LOG_LEVEL", "info"),
		LogFormat:              envStr("LOG_FORMAT", "text"),
		SelfName:               envStr("CLM_SELF_NAME", "Pasquale"),
		MinMessages:            envInt("CLM_MIN_MESSAGES", 20),
		TurnWindowMinutes:      envInt("CLM_TURN_WINDOW_MINUTES", 5),
		ConversationGapMinutes: envInt("CLM_CONVERSATION_GAP_MINUTES", 60),
		IncludeGroups:          envBool("CLM_INCLUDE_GROUPS", false),
		Workers:                envInt("CLM_WORKERS", 1),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
