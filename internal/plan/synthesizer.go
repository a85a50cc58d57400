// Package plan turns a profile snapshot into a fully specified nutrition or
// training plan. Synthesis is pure: no I/O, and for a fixed clock the same
// inputs always give the same plan.
package plan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"coach-agent/internal/domain"
)

const (
	DefaultNutritionDuration = "7_days"
	DefaultFitnessDuration   = "4_weeks"
)

var (
	NutritionDurations = []string{"7_days", "14_days", "30_days"}
	FitnessDurations   = []string{"4_weeks", "8_weeks", "12_weeks"}
)

var (
	ErrMissingUser     = errors.New("user id is required")
	ErrUnknownDuration = errors.New("unknown plan duration")
	ErrUnknownKind     = errors.New("unknown plan kind")
	ErrInconsistent    = errors.New("inconsistent plan")
)

// SynthesisError reports a plan that could not be built. No partial plan
// accompanies it.
type SynthesisError struct {
	Kind domain.PlanKind
	Err  error
}

func (e *SynthesisError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plan: synthesize %s plan: %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type Synthesizer struct {
	now func() time.Time
}

type Option func(*Synthesizer)

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds the plan kind named by hints.
func (s *Synthesizer) Synthesize(userID string, profile domain.UserProfile, hints domain.PlanHints) (domain.PlanRecord, error) {
	switch hints.Kind {
	case domain.PlanNutrition:
		p, err := s.SynthesizeNutrition(userID, profile, hints)
		if err != nil {
			return domain.PlanRecord{}, err
		}
		return domain.PlanRecord{Nutrition: p}, nil
	case domain.PlanFitness:
		p, err := s.SynthesizeFitness(userID, profile, hints)
		if err != nil {
			return domain.PlanRecord{}, err
		}
		return domain.PlanRecord{Fitness: p}, nil
	}
	return domain.PlanRecord{}, &SynthesisError{Kind: hints.Kind, Err: fmt.Errorf("%w %q", ErrUnknownKind, hints.Kind)}
}

func (s *Synthesizer) SynthesizeNutrition(userID string, profile domain.UserProfile, hints domain.PlanHints) (out *domain.NutritionPlan, err error) {
	defer recoverInto(domain.PlanNutrition, &out, &err)

	if strings.TrimSpace(userID) == "" {
		return nil, &SynthesisError{Kind: domain.PlanNutrition, Err: ErrMissingUser}
	}
	duration, err := resolveDuration(domain.PlanNutrition, hints.Duration, DefaultNutritionDuration, NutritionDurations)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	calories := DailyCalories(profile)
	macros := Macros(calories, profile.Goals)

	p := &domain.NutritionPlan{
		ID:            planID(domain.PlanNutrition, userID, createdAt),
		UserID:        userID,
		Type:          domain.PlanNutrition,
		Duration:      duration,
		CreatedAt:     createdAt,
		DailyCalories: calories,
		Macros:        macros,
		Meals:         mealStructure(),
		Guidelines:    nutritionGuidelines(profile.Restrictions),
		ShoppingList:  shoppingList(macros),
		Notes:         hints.Notes,
	}
	if err := checkNutrition(p); err != nil {
		return nil, &SynthesisError{Kind: domain.PlanNutrition, Err: err}
	}
	return p, nil
}

func (s *Synthesizer) SynthesizeFitness(userID string, profile domain.UserProfile, hints domain.PlanHints) (out *domain.FitnessPlan, err error) {
	defer recoverInto(domain.PlanFitness, &out, &err)

	if strings.TrimSpace(userID) == "" {
		return nil, &SynthesisError{Kind: domain.PlanFitness, Err: ErrMissingUser}
	}
	duration, err := resolveDuration(domain.PlanFitness, hints.Duration, DefaultFitnessDuration, FitnessDurations)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	level := effectiveLevel(profile.FitnessLevel)

	p := &domain.FitnessPlan{
		ID:             planID(domain.PlanFitness, userID, createdAt),
		UserID:         userID,
		Type:           domain.PlanFitness,
		Duration:       duration,
		CreatedAt:      createdAt,
		FitnessLevel:   level,
		WeeklySchedule: weeklySchedule(level),
		Exercises:      exerciseLibrary(),
		Progression:    progression(),
		Notes:          hints.Notes,
	}
	if err := checkFitness(p); err != nil {
		return nil, &SynthesisError{Kind: domain.PlanFitness, Err: err}
	}
	return p, nil
}

// recoverInto turns a panic during synthesis into a SynthesisError and
// discards whatever was built.
func recoverInto[T any](kind domain.PlanKind, out **T, err *error) {
	if r := recover(); r != nil {
		*out = nil
		*err = &SynthesisError{Kind: kind, Err: fmt.Errorf("internal fault: %v", r)}
	}
}

func resolveDuration(kind domain.PlanKind, hinted, def string, allowed []string) (string, error) {
	d := strings.TrimSpace(hinted)
	if d == "" {
		return def, nil
	}
	if !slices.Contains(allowed, d) {
		return "", &SynthesisError{Kind: kind, Err: fmt.Errorf("%w %q", ErrUnknownDuration, d)}
	}
	return d, nil
}

func effectiveLevel(l domain.FitnessLevel) domain.FitnessLevel {
	switch domain.FitnessLevel(strings.ToLower(string(l))) {
	case domain.FitnessIntermediate:
		return domain.FitnessIntermediate
	case domain.FitnessAdvanced:
		return domain.FitnessAdvanced
	}
	return domain.FitnessBeginner
}

func planID(kind domain.PlanKind, userID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", kind, userID, at.Unix())
}

func checkNutrition(p *domain.NutritionPlan) error {
	m := p.Macros
	if p.DailyCalories <= 0 || m.ProteinG < 0 || m.CarbsG < 0 || m.FatG < 0 || m.FiberG < minFiberG {
		return fmt.Errorf("%w: calories=%d macros=%+v", ErrInconsistent, p.DailyCalories, m)
	}
	meals := []domain.Meal{p.Meals.Breakfast, p.Meals.Lunch, p.Meals.Snack, p.Meals.Dinner}
	total := 0
	for _, meal := range meals {
		total += meal.CaloriesPercentage
	}
	if total != 100 {
		return fmt.Errorf("%w: meal shares sum to %d%%", ErrInconsistent, total)
	}
	return nil
}

func checkFitness(p *domain.FitnessPlan) error {
	for _, day := range p.WeeklySchedule.Days() {
		if day.Type == "" {
			return fmt.Errorf("%w: schedule has an empty day", ErrInconsistent)
		}
	}
	return nil
}
