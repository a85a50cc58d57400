package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"coach-agent/internal/domain"
	"coach-agent/internal/session"
)

func (s *ChatService) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	return s.store.GetProfile(ctx, userID), nil
}

// UpdateProfile validates patch and merges it into the stored profile.
func (s *ChatService) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (domain.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	if err := patch.Validate(); err != nil {
		return domain.UserProfile{}, newError(ErrorInvalidInput, "invalid_profile", err)
	}
	merged := s.store.MergeProfile(context.WithoutCancel(ctx), userID, patch)
	s.log.Info("profile updated", "user_id", userID)
	return merged, nil
}

// Plan reads a plan from the durable sink, falling back to the cached
// backup when the sink misses or fails. A sink failure with no usable backup
// is an upstream error rather than a miss.
func (s *ChatService) Plan(ctx context.Context, userID, planID string) (domain.PlanRecord, error) {
	userID = strings.TrimSpace(userID)
	planID = strings.TrimSpace(planID)
	if userID == "" {
		return domain.PlanRecord{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	if planID == "" {
		return domain.PlanRecord{}, newError(ErrorInvalidInput, "empty_plan_id", nil)
	}

	rec, found, sinkErr := s.sink.Plan(ctx, userID, planID)
	switch {
	case sinkErr != nil:
		s.log.Warn("plan sink read failed", "user_id", userID, "plan_id", planID, "err", sinkErr)
	case found:
		return rec, nil
	}

	if raw, ok := s.store.GetCachedLookup(ctx, session.PlanCacheKey(planID)); ok {
		var cached domain.PlanRecord
		if err := json.Unmarshal(raw, &cached); err == nil && cached.UserID() == userID {
			return cached, nil
		}
	}
	if sinkErr != nil {
		return domain.PlanRecord{}, newError(ErrorUpstream, "plan_store_unavailable", sinkErr)
	}
	return domain.PlanRecord{}, newError(ErrorNotFound, "plan_not_found", nil)
}

// Plans lists a user's plans, newest first.
func (s *ChatService) Plans(ctx context.Context, userID string, limit int) ([]domain.PlanRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	if limit <= 0 {
		limit = defaultPlanListLimit
	}
	limit = min(limit, maxPlanListLimit)

	plans, err := s.sink.Plans(ctx, userID, limit)
	if err != nil {
		return nil, newError(ErrorInternal, "list_plans_failed", err)
	}
	if plans == nil {
		plans = []domain.PlanRecord{}
	}
	return plans, nil
}
