// Package session is the short-lived per-user memory: a bounded,
// newest-first conversation log, the merge-on-write user profile, and a
// generic TTL cache for external lookups and plan backups.
//
// Every operation is best-effort. Backend failures are logged and degrade
// to an absent result for reads and a no-op for writes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"coach-agent/internal/domain"
)

const (
	MaxConversationEntries = 50
	ConversationTTL        = 24 * time.Hour
	ProfileTTL             = 30 * 24 * time.Hour
	DefaultLookupTTL       = time.Hour
	PlanBackupTTL          = 30 * 24 * time.Hour
	DefaultContextLimit    = 10
)

// Backend is the key/value + bounded-list store the session layer runs on.
// PushTrim and Update must each be atomic for a single key.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// PushTrim inserts value at the head of the list, trims the list to
	// maxLen entries and resets its TTL, as one unit.
	PushTrim(ctx context.Context, key, value string, maxLen int, ttl time.Duration) error
	// Range returns up to limit list entries, head first.
	Range(ctx context.Context, key string, limit int) ([]string, error)
	// Update replaces the value at key with fn's result. fn may run more
	// than once and must not have side effects.
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current string, found bool) (string, error)) error
	Close() error
}

// Store implements the session operations over a Backend.
type Store struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time

	closeOnce sync.Once
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for profile stamps and entry
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(b Backend, opts ...Option) (*Store, error) {
	if b == nil {
		return nil, errors.New("session: backend must not be nil")
	}
	s := &Store{
		backend: b,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "session")
	return s, nil
}

func conversationKey(userID string) string { return "conversation:" + userID }
func profileKey(userID string) string      { return "profile:" + userID }
func lookupKey(key string) string          { return "api_cache:" + key }

// PlanCacheKey is the CacheLookup key of a plan backup.
func PlanCacheKey(planID string) string { return "plan:" + planID }

// GetContext returns up to limit recent turns, most recent first.
func (s *Store) GetContext(ctx context.Context, userID string, limit int) []domain.ConversationEntry {
	if limit <= 0 || strings.TrimSpace(userID) == "" {
		return []domain.ConversationEntry{}
	}
	if limit > MaxConversationEntries {
		limit = MaxConversationEntries
	}

	raw, err := s.backend.Range(ctx, conversationKey(userID), limit)
	if err != nil {
		s.log.Error("get context failed", "user_id", userID, "err", err)
		return []domain.ConversationEntry{}
	}

	entries := make([]domain.ConversationEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.ConversationEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			s.log.Warn("skipping undecodable conversation entry", "user_id", userID, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// AppendTurn records a turn at the head of the user's conversation and
// resets the conversation TTL.
func (s *Store) AppendTurn(ctx context.Context, userID string, entry domain.ConversationEntry) {
	if strings.TrimSpace(userID) == "" {
		s.log.Warn("append turn without user id ignored")
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		s.log.Error("encode conversation entry failed", "user_id", userID, "err", err)
		return
	}
	if err := s.backend.PushTrim(ctx, conversationKey(userID), string(raw), MaxConversationEntries, ConversationTTL); err != nil {
		s.log.Error("append turn failed", "user_id", userID, "err", err)
	}
}

// GetProfile returns the stored profile, or an empty one.
func (s *Store) GetProfile(ctx context.Context, userID string) domain.UserProfile {
	if strings.TrimSpace(userID) == "" {
		return domain.UserProfile{}
	}
	raw, found, err := s.backend.Get(ctx, profileKey(userID))
	if err != nil {
		s.log.Error("get profile failed", "user_id", userID, "err", err)
		return domain.UserProfile{}
	}
	if !found {
		return domain.UserProfile{}
	}
	return s.decodeProfile(userID, raw)
}

// MergeProfile applies patch over the stored profile, stamps LastUpdated and
// resets the profile TTL. Concurrent merges for one user are serialized by
// the backend, so no merge is lost to a stale read. The merged profile is
// returned even when the write could not be stored.
func (s *Store) MergeProfile(ctx context.Context, userID string, patch domain.ProfilePatch) domain.UserProfile {
	var merged domain.UserProfile
	merge := func(current string, found bool) (string, error) {
		base := domain.UserProfile{}
		if found {
			base = s.decodeProfile(userID, current)
		}
		merged = domain.MergeProfile(base, patch)
		merged.LastUpdated = s.now().UTC()
		raw, err := json.Marshal(merged)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	if strings.TrimSpace(userID) == "" {
		s.log.Warn("merge profile without user id ignored")
		_, _ = merge("", false)
		return merged
	}
	if err := s.backend.Update(ctx, profileKey(userID), ProfileTTL, merge); err != nil {
		s.log.Error("merge profile failed", "user_id", userID, "err", err)
		if merged.LastUpdated.IsZero() {
			_, _ = merge("", false)
		}
	}
	return merged
}

// CacheLookup stores value JSON-encoded under key. A non-positive ttl means
// DefaultLookupTTL.
func (s *Store) CacheLookup(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultLookupTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Error("encode cached lookup failed", "key", key, "err", err)
		return
	}
	if err := s.backend.Set(ctx, lookupKey(key), string(raw), ttl); err != nil {
		s.log.Error("cache lookup failed", "key", key, "err", err)
	}
}

// GetCachedLookup returns the raw JSON stored under key.
func (s *Store) GetCachedLookup(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, found, err := s.backend.Get(ctx, lookupKey(key))
	if err != nil {
		s.log.Error("get cached lookup failed", "key", key, "err", err)
		return nil, false
	}
	if !found || !json.Valid([]byte(raw)) {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Close releases the backend. Calling it more than once is a no-op.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if err := s.backend.Close(); err != nil {
			s.log.Error("close backend failed", "err", err)
		}
	})
}

func (s *Store) decodeProfile(userID, raw string) domain.UserProfile {
	var p domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.Warn("discarding undecodable profile", "user_id", userID, "err", err)
		return domain.UserProfile{}
	}
	return p
}
