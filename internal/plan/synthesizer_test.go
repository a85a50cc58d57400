package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"coach-agent/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestSynthesizer() *Synthesizer {
	return NewSynthesizer(WithClock(func() time.Time { return fixedNow }))
}

func sampleProfile() domain.UserProfile {
	return domain.UserProfile{
		Gender: domain.GenderMale, Age: intPtr(30), WeightKg: floatPtr(70), HeightCm: floatPtr(175),
		ActivityLevel: domain.ActivityModerate, FitnessLevel: domain.FitnessIntermediate,
	}
}

func TestSynthesizeNutrition_FullyPopulated(t *testing.T) {
	s := newTestSynthesizer()
	p, err := s.SynthesizeNutrition("u1", sampleProfile(), domain.PlanHints{Kind: domain.PlanNutrition, Notes: "notes"})
	require.NoError(t, err)

	require.Equal(t, "nutrition_u1_1772359200", p.ID)
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, domain.PlanNutrition, p.Type)
	require.Equal(t, DefaultNutritionDuration, p.Duration)
	require.Equal(t, fixedNow, p.CreatedAt)
	require.Equal(t, 2628, p.DailyCalories)
	require.Equal(t, Macros(2628, ""), p.Macros)
	require.Equal(t, 25, p.Meals.Breakfast.CaloriesPercentage)
	require.Equal(t, 35, p.Meals.Lunch.CaloriesPercentage)
	require.Equal(t, 10, p.Meals.Snack.CaloriesPercentage)
	require.Equal(t, 30, p.Meals.Dinner.CaloriesPercentage)
	require.Len(t, p.Guidelines, 5)
	require.NotEmpty(t, p.ShoppingList.Proteins)
	require.NotEmpty(t, p.ShoppingList.Carbs)
	require.NotEmpty(t, p.ShoppingList.Fats)
	require.NotEmpty(t, p.ShoppingList.Vegetables)
	require.NotEmpty(t, p.ShoppingList.Others)
	require.Equal(t, "notes", p.Notes)
}

func TestSynthesizeNutrition_RestrictionGuidelines(t *testing.T) {
	s := newTestSynthesizer()
	profile := sampleProfile()
	profile.Restrictions = "Vegetariano, con Diabetes tipo 2"

	p, err := s.SynthesizeNutrition("u1", profile, domain.PlanHints{})
	require.NoError(t, err)
	require.Len(t, p.Guidelines, 9)
	require.Contains(t, p.Guidelines, "Controla el índice glucémico de los carbohidratos")
	require.Contains(t, p.Guidelines, "Asegúrate de obtener suficiente B12 y hierro")
}

func TestSynthesizeNutrition_ShoppingListIgnoresMacros(t *testing.T) {
	s := newTestSynthesizer()
	small, err := s.SynthesizeNutrition("u1", domain.UserProfile{WeightKg: floatPtr(45)}, domain.PlanHints{})
	require.NoError(t, err)
	large, err := s.SynthesizeNutrition("u1", domain.UserProfile{WeightKg: floatPtr(120), Goals: "muscle"}, domain.PlanHints{})
	require.NoError(t, err)

	require.NotEqual(t, small.Macros, large.Macros)
	require.Empty(t, cmp.Diff(small.ShoppingList, large.ShoppingList))
}

func TestSynthesizeNutrition_Deterministic(t *testing.T) {
	s := newTestSynthesizer()
	hints := domain.PlanHints{Kind: domain.PlanNutrition, Duration: "14_days"}
	a, err := s.SynthesizeNutrition("u1", sampleProfile(), hints)
	require.NoError(t, err)
	b, err := s.SynthesizeNutrition("u1", sampleProfile(), hints)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(a, b))
	require.Equal(t, "14_days", a.Duration)
}

func TestSynthesizeFitness_ScheduleByLevel(t *testing.T) {
	s := newTestSynthesizer()
	cases := []struct {
		level  domain.FitnessLevel
		want   domain.FitnessLevel
		monday string
	}{
		{level: "", want: domain.FitnessBeginner, monday: "full_body"},
		{level: domain.FitnessBeginner, want: domain.FitnessBeginner, monday: "full_body"},
		{level: domain.FitnessIntermediate, want: domain.FitnessIntermediate, monday: "upper_body"},
		{level: domain.FitnessAdvanced, want: domain.FitnessAdvanced, monday: "push"},
		{level: "elite", want: domain.FitnessBeginner, monday: "full_body"},
	}
	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			p, err := s.SynthesizeFitness("u1", domain.UserProfile{FitnessLevel: tc.level}, domain.PlanHints{})
			require.NoError(t, err)
			require.Equal(t, tc.want, p.FitnessLevel)
			require.Equal(t, tc.monday, p.WeeklySchedule.Monday.Type)
			require.Equal(t, "rest", p.WeeklySchedule.Sunday.Type)
		})
	}
}

func TestSynthesizeFitness_FullyPopulated(t *testing.T) {
	s := newTestSynthesizer()
	p, err := s.SynthesizeFitness("u1", sampleProfile(), domain.PlanHints{Kind: domain.PlanFitness, Duration: "8_weeks"})
	require.NoError(t, err)
	require.Equal(t, "fitness_u1_1772359200", p.ID)
	require.Equal(t, "8_weeks", p.Duration)
	require.Len(t, p.Exercises.UpperBody, 4)
	require.Len(t, p.Exercises.LowerBody, 4)
	require.Len(t, p.Exercises.Cardio, 4)
	require.NotEmpty(t, p.Progression.Week1)
	require.NotEmpty(t, p.Progression.General)
	for _, day := range p.WeeklySchedule.Days() {
		if day.Type == "rest" {
			require.NotEmpty(t, day.Activity)
			continue
		}
		require.Positive(t, day.DurationMin)
		require.NotEmpty(t, day.Intensity)
	}
}

func TestSynthesize_UnknownDuration(t *testing.T) {
	s := newTestSynthesizer()

	n, err := s.SynthesizeNutrition("u1", sampleProfile(), domain.PlanHints{Duration: "4_weeks"})
	require.Nil(t, n)
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	require.Equal(t, domain.PlanNutrition, synthErr.Kind)
	require.ErrorIs(t, err, ErrUnknownDuration)

	f, err := s.SynthesizeFitness("u1", sampleProfile(), domain.PlanHints{Duration: "7_days"})
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrUnknownDuration)
}

func TestSynthesize_MissingUser(t *testing.T) {
	s := newTestSynthesizer()
	_, err := s.SynthesizeNutrition(" ", sampleProfile(), domain.PlanHints{})
	require.ErrorIs(t, err, ErrMissingUser)
	_, err = s.SynthesizeFitness("", sampleProfile(), domain.PlanHints{})
	require.ErrorIs(t, err, ErrMissingUser)
}

func TestSynthesize_InternalFaultIsAtomic(t *testing.T) {
	s := NewSynthesizer(WithClock(func() time.Time { panic("clock unavailable") }))

	n, err := s.SynthesizeNutrition("u1", sampleProfile(), domain.PlanHints{})
	require.Nil(t, n)
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	require.Contains(t, err.Error(), "clock unavailable")

	f, err := s.SynthesizeFitness("u1", sampleProfile(), domain.PlanHints{})
	require.Nil(t, f)
	require.ErrorAs(t, err, &synthErr)

	rec, err := s.Synthesize("u1", sampleProfile(), domain.PlanHints{Kind: domain.PlanFitness})
	require.Error(t, err)
	require.Equal(t, domain.PlanRecord{}, rec)
}

func TestSynthesize_DispatchesOnKind(t *testing.T) {
	s := newTestSynthesizer()

	rec, err := s.Synthesize("u1", sampleProfile(), domain.PlanHints{Kind: domain.PlanNutrition})
	require.NoError(t, err)
	require.Equal(t, domain.PlanNutrition, rec.Kind())
	require.Nil(t, rec.Fitness)

	rec, err = s.Synthesize("u1", sampleProfile(), domain.PlanHints{Kind: domain.PlanFitness})
	require.NoError(t, err)
	require.Equal(t, domain.PlanFitness, rec.Kind())

	_, err = s.Synthesize("u1", sampleProfile(), domain.PlanHints{Kind: "meditation"})
	require.True(t, errors.Is(err, ErrUnknownKind))
}
