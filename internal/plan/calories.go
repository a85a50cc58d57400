package plan

import (
	"math"
	"strings"

	"coach-agent/internal/domain"
)

const (
	defaultAge      = 30
	defaultWeightKg = 70.0
	defaultHeightCm = 170.0

	// FallbackCalories is returned when the energy estimate cannot be
	// computed from the profile.
	FallbackCalories = 2000

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
	minFiberG          = 25
)

var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

const defaultActivityMultiplier = 1.55

// MacroSplit is the share of daily calories given to each macronutrient.
type MacroSplit struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

var (
	muscleSplit      = MacroSplit{Protein: 0.30, Carbs: 0.40, Fat: 0.30}
	weightLossSplit  = MacroSplit{Protein: 0.35, Carbs: 0.30, Fat: 0.35}
	maintenanceSplit = MacroSplit{Protein: 0.25, Carbs: 0.45, Fat: 0.30}
)

// BMR is the Harris-Benedict basal metabolic rate. Missing inputs use the
// defaults (30 years, 70 kg, 170 cm); anything but female uses the male
// equation.
func BMR(p domain.UserProfile) float64 {
	age := float64(defaultAge)
	if p.Age != nil {
		age = float64(*p.Age)
	}
	weight := defaultWeightKg
	if p.WeightKg != nil {
		weight = *p.WeightKg
	}
	height := defaultHeightCm
	if p.HeightCm != nil {
		height = *p.HeightCm
	}

	if strings.EqualFold(string(p.Gender), string(domain.GenderFemale)) {
		return 447.593 + 9.247*weight + 3.098*height - 4.330*age
	}
	return 88.362 + 13.397*weight + 4.799*height - 5.677*age
}

// TDEE scales BMR by the activity multiplier; unknown levels count as
// moderate.
func TDEE(p domain.UserProfile) float64 {
	m, ok := activityMultipliers[domain.ActivityLevel(strings.ToLower(string(p.ActivityLevel)))]
	if !ok {
		m = defaultActivityMultiplier
	}
	return BMR(p) * m
}

// DailyCalories is TDEE adjusted for the profile's goal: a 20% deficit to
// lose weight, a 15% surplus to gain weight, maintenance otherwise. It never
// fails; an unusable estimate yields FallbackCalories.
func DailyCalories(p domain.UserProfile) int {
	tdee := TDEE(p)
	goals := strings.ToLower(p.Goals)

	var kcal float64
	switch {
	case strings.Contains(goals, "perder peso") || strings.Contains(goals, "lose weight"):
		kcal = tdee * 0.8
	case strings.Contains(goals, "ganar peso") || strings.Contains(goals, "gain weight"):
		kcal = tdee * 1.15
	default:
		kcal = tdee
	}

	if math.IsNaN(kcal) || math.IsInf(kcal, 0) || kcal <= 0 || kcal > math.MaxInt32 {
		return FallbackCalories
	}
	return int(math.Round(kcal))
}

// SplitFor picks the macro split for a goal description.
func SplitFor(goals string) MacroSplit {
	goals = strings.ToLower(goals)
	switch {
	case strings.Contains(goals, "ganar músculo") || strings.Contains(goals, "muscle"):
		return muscleSplit
	case strings.Contains(goals, "perder peso") || strings.Contains(goals, "lose weight"):
		return weightLossSplit
	default:
		return maintenanceSplit
	}
}

// Macros converts calories into gram targets for the goal's split.
func Macros(calories int, goals string) domain.Macros {
	split := SplitFor(goals)
	kcal := float64(calories)
	return domain.Macros{
		ProteinG: int(math.Round(kcal * split.Protein / kcalPerGramProtein)),
		CarbsG:   int(math.Round(kcal * split.Carbs / kcalPerGramCarbs)),
		FatG:     int(math.Round(kcal * split.Fat / kcalPerGramFat)),
		FiberG:   max(minFiberG, int(math.Round(kcal/80))),
	}
}
