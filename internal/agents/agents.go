// Package agents holds the four domain handlers the chat service routes to.
// Each builds a prompt from the user profile and recent conversation and asks
// a chat model for the answer.
package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"coach-agent/internal/domain"
)

// recentTurns is how many context entries go into a prompt.
const recentTurns = 3

// Completer is the chat model the handlers talk to.
// *openai.Client satisfies it.
type Completer interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage, temperature float64) (string, error)
}

// Config is shared by every handler.
type Config struct {
	LLM    Completer
	Model  string
	Logger *slog.Logger
}

func (c Config) validate() error {
	if c.LLM == nil {
		return errors.New("agents: completer must not be nil")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("agents: model must not be empty")
	}
	return nil
}

func (c Config) logger(tag domain.HandlerTag) *slog.Logger {
	l := c.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "agent", "handler", tag)
}

// ask sends the system prompt, the recent conversation and the user input.
func ask(ctx context.Context, cfg Config, temperature float64, system, input string, history []domain.ConversationEntry) (string, error) {
	messages := make([]domain.ChatMessage, 0, 2+2*recentTurns)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: system})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: input})

	out, err := cfg.LLM.Chat(ctx, cfg.Model, messages, temperature)
	if err != nil {
		return "", fmt.Errorf("agents: completion: %w", err)
	}
	return out, nil
}

// historyMessages replays up to recentTurns entries oldest first. history is
// newest-first.
func historyMessages(history []domain.ConversationEntry) []domain.ChatMessage {
	recent := history[:min(len(history), recentTurns)]
	out := make([]domain.ChatMessage, 0, 2*len(recent))
	for _, e := range slices.Backward(recent) {
		out = append(out,
			domain.ChatMessage{Role: "user", Content: e.UserMessage},
			domain.ChatMessage{Role: "assistant", Content: e.AgentResponse},
		)
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	s = strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// profileLines renders the set attributes as "Label: value" lines.
type profileLines []string

func (l *profileLines) add(label, value string) {
	if strings.TrimSpace(value) != "" {
		*l = append(*l, label+": "+value)
	}
}

func (l profileLines) render(empty string) string {
	if len(l) == 0 {
		return empty
	}
	return strings.Join(l, "\n")
}

func userInput(profile, message string) string {
	return "Perfil del usuario:\n" + profile + "\n\nConsulta: " + message
}
