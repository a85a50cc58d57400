package agents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"coach-agent/internal/integrations/exercisedb"
	"coach-agent/internal/routing"
	"coach-agent/internal/session"
)

const (
	exercisesPerTarget = 5
	upstreamTimeout    = 15 * time.Second
	targetListTTL      = 24 * time.Hour
	targetListCacheKey = "exercisedb:targets"
)

// ExerciseSource is the upstream exercise catalogue.
type ExerciseSource interface {
	ByTarget(ctx context.Context, target string, limit int) ([]exercisedb.Exercise, error)
	Targets(ctx context.Context) ([]string, error)
}

// LookupCache stores upstream results between requests. *session.Store
// satisfies it.
type LookupCache interface {
	CacheLookup(ctx context.Context, key string, value any, ttl time.Duration)
	GetCachedLookup(ctx context.Context, key string) (json.RawMessage, bool)
}

// muscleTargets maps folded Spanish muscle names to ExerciseDB targets.
// Longer names come first so "abdominales" wins over "abdomen".
var muscleTargets = []struct {
	word   string
	target string
}{
	{"isquiotibiales", "hamstrings"},
	{"abdominales", "abs"},
	{"pantorrillas", "calves"},
	{"cuadriceps", "quads"},
	{"abdomen", "abs"},
	{"espalda", "lats"},
	{"gemelos", "calves"},
	{"gluteos", "glutes"},
	{"hombros", "delts"},
	{"triceps", "triceps"},
	{"biceps", "biceps"},
	{"pecho", "pectorals"},
	{"core", "abs"},
}

// MuscleTarget returns the ExerciseDB target named in message, if any.
func MuscleTarget(message string) (string, bool) {
	folded := routing.Fold(message)
	for _, m := range muscleTargets {
		if strings.Contains(folded, m.word) {
			return m.target, true
		}
	}
	return "", false
}

// ExerciseLookup fronts an ExerciseSource with the session lookup cache.
// Concurrent misses for the same target share one upstream call.
type ExerciseLookup struct {
	src   ExerciseSource
	cache LookupCache
	ttl   time.Duration
	log   *slog.Logger
	group singleflight.Group
}

func NewExerciseLookup(src ExerciseSource, cache LookupCache, log *slog.Logger) (*ExerciseLookup, error) {
	if src == nil {
		return nil, errors.New("agents: exercise source must not be nil")
	}
	if cache == nil {
		return nil, errors.New("agents: lookup cache must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExerciseLookup{
		src:   src,
		cache: cache,
		ttl:   session.DefaultLookupTTL,
		log:   log.With("component", "exercise_lookup"),
	}, nil
}

func exerciseCacheKey(target string) string { return "exercisedb:target:" + target }

func (l *ExerciseLookup) ByTarget(ctx context.Context, target string) ([]exercisedb.Exercise, error) {
	key := exerciseCacheKey(target)
	if raw, ok := l.cache.GetCachedLookup(ctx, key); ok {
		var cached []exercisedb.Exercise
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		l.log.Warn("discarding undecodable cached exercises", "target", target)
	}

	if !l.knownTarget(ctx, target) {
		l.log.Debug("target not in catalogue", "target", target)
		return nil, nil
	}

	v, err := l.shared(ctx, key, func(callCtx context.Context) (any, error) {
		out, err := l.src.ByTarget(callCtx, target, exercisesPerTarget)
		if err != nil {
			return nil, err
		}
		l.cache.CacheLookup(callCtx, key, out, l.ttl)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]exercisedb.Exercise), nil
}

// knownTarget reports whether the catalogue lists target. An unavailable or
// empty list admits every target.
func (l *ExerciseLookup) knownTarget(ctx context.Context, target string) bool {
	targets, err := l.targets(ctx)
	if err != nil {
		l.log.Warn("target list unavailable", "err", err)
		return true
	}
	return len(targets) == 0 || slices.Contains(targets, target)
}

func (l *ExerciseLookup) targets(ctx context.Context) ([]string, error) {
	if raw, ok := l.cache.GetCachedLookup(ctx, targetListCacheKey); ok {
		var cached []string
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}
	v, err := l.shared(ctx, targetListCacheKey, func(callCtx context.Context) (any, error) {
		out, err := l.src.Targets(callCtx)
		if err != nil {
			return nil, err
		}
		l.cache.CacheLookup(callCtx, targetListCacheKey, out, targetListTTL)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// shared runs fn once per key across concurrent callers. fn gets a context
// detached from the caller that started the flight and bounded by
// upstreamTimeout; each caller stops waiting when its own ctx ends.
func (l *ExerciseLookup) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := l.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		l.log.Debug("exercise lookup", "key", key, "shared", res.Shared)
		return res.Val, res.Err
	}
}
