package domain

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// UserProfile is the evolving per-user profile. Nil numeric fields mean the
// attribute was never provided. Extra carries forward-compatible attributes.
type UserProfile struct {
	Age           *int           `json:"age,omitempty"`
	WeightKg      *float64       `json:"weight,omitempty"`
	HeightCm      *float64       `json:"height,omitempty"`
	Gender        Gender         `json:"gender,omitempty"`
	ActivityLevel ActivityLevel  `json:"activity_level,omitempty"`
	FitnessLevel  FitnessLevel   `json:"fitness_level,omitempty"`
	Goals         string         `json:"goals,omitempty"`
	Restrictions  string         `json:"restrictions,omitempty"`
	Injuries      string         `json:"injuries,omitempty"`
	Equipment     string         `json:"equipment,omitempty"`
	TimeAvailable string         `json:"time_available,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
	LastUpdated   time.Time      `json:"last_updated,omitempty"`
}

// IsEmpty reports whether no attribute has ever been set. LastUpdated is not
// an attribute.
func (p UserProfile) IsEmpty() bool {
	return p.Age == nil && p.WeightKg == nil && p.HeightCm == nil &&
		p.Gender == "" && p.ActivityLevel == "" && p.FitnessLevel == "" &&
		p.Goals == "" && p.Restrictions == "" && p.Injuries == "" &&
		p.Equipment == "" && p.TimeAvailable == "" && len(p.Extra) == 0
}

// ProfilePatch is a partial profile update. Only non-nil fields and the keys
// present in Extra are applied.
type ProfilePatch struct {
	Age           *int           `json:"age,omitempty"`
	WeightKg      *float64       `json:"weight,omitempty"`
	HeightCm      *float64       `json:"height,omitempty"`
	Gender        *Gender        `json:"gender,omitempty"`
	ActivityLevel *ActivityLevel `json:"activity_level,omitempty"`
	FitnessLevel  *FitnessLevel  `json:"fitness_level,omitempty"`
	Goals         *string        `json:"goals,omitempty"`
	Restrictions  *string        `json:"restrictions,omitempty"`
	Injuries      *string        `json:"injuries,omitempty"`
	Equipment     *string        `json:"equipment,omitempty"`
	TimeAvailable *string        `json:"time_available,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Validate normalizes enum casing in place and rejects out-of-range values.
func (p *ProfilePatch) Validate() error {
	if p == nil {
		return errors.New("domain: profile patch must not be nil")
	}
	if p.Age != nil && (*p.Age <= 0 || *p.Age > 130) {
		return fmt.Errorf("domain: age %d out of range", *p.Age)
	}
	if p.WeightKg != nil && !positiveFinite(*p.WeightKg) {
		return fmt.Errorf("domain: weight %v out of range", *p.WeightKg)
	}
	if p.HeightCm != nil && !positiveFinite(*p.HeightCm) {
		return fmt.Errorf("domain: height %v out of range", *p.HeightCm)
	}
	if p.Gender != nil {
		g := Gender(normalizeEnum(string(*p.Gender)))
		if g != GenderMale && g != GenderFemale {
			return fmt.Errorf("domain: unknown gender %q", *p.Gender)
		}
		p.Gender = &g
	}
	if p.ActivityLevel != nil {
		a := ActivityLevel(normalizeEnum(string(*p.ActivityLevel)))
		switch a {
		case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		default:
			return fmt.Errorf("domain: unknown activity level %q", *p.ActivityLevel)
		}
		p.ActivityLevel = &a
	}
	if p.FitnessLevel != nil {
		f := FitnessLevel(normalizeEnum(string(*p.FitnessLevel)))
		switch f {
		case FitnessBeginner, FitnessIntermediate, FitnessAdvanced:
		default:
			return fmt.Errorf("domain: unknown fitness level %q", *p.FitnessLevel)
		}
		p.FitnessLevel = &f
	}
	return nil
}

// MergeProfile applies patch over base. Fields absent from the patch keep
// their base value. base is not mutated.
func MergeProfile(base UserProfile, patch ProfilePatch) UserProfile {
	out := base
	if patch.Age != nil {
		v := *patch.Age
		out.Age = &v
	}
	if patch.WeightKg != nil {
		v := *patch.WeightKg
		out.WeightKg = &v
	}
	if patch.HeightCm != nil {
		v := *patch.HeightCm
		out.HeightCm = &v
	}
	if patch.Gender != nil {
		out.Gender = *patch.Gender
	}
	if patch.ActivityLevel != nil {
		out.ActivityLevel = *patch.ActivityLevel
	}
	if patch.FitnessLevel != nil {
		out.FitnessLevel = *patch.FitnessLevel
	}
	if patch.Goals != nil {
		out.Goals = *patch.Goals
	}
	if patch.Restrictions != nil {
		out.Restrictions = *patch.Restrictions
	}
	if patch.Injuries != nil {
		out.Injuries = *patch.Injuries
	}
	if patch.Equipment != nil {
		out.Equipment = *patch.Equipment
	}
	if patch.TimeAvailable != nil {
		out.TimeAvailable = *patch.TimeAvailable
	}
	if len(base.Extra) > 0 || len(patch.Extra) > 0 {
		extra := make(map[string]any, len(base.Extra)+len(patch.Extra))
		maps.Copy(extra, base.Extra)
		maps.Copy(extra, patch.Extra)
		out.Extra = extra
	}
	return out
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func normalizeEnum(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
