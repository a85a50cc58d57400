package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PlanKind is the discriminator of PlanRecord.
type PlanKind string

const (
	PlanNutrition PlanKind = "nutrition"
	PlanFitness   PlanKind = "fitness"
)

// PlanHints carries what a domain handler knows about the plan it wants.
type PlanHints struct {
	Kind     PlanKind `json:"kind"`
	Duration string   `json:"duration,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fats_g"`
	FiberG   int `json:"fiber_g"`
}

type Meal struct {
	Time               string   `json:"time"`
	CaloriesPercentage int      `json:"calories_percentage"`
	Suggestions        []string `json:"suggestions"`
}

type MealStructure struct {
	Breakfast Meal `json:"breakfast"`
	Lunch     Meal `json:"lunch"`
	Snack     Meal `json:"snack"`
	Dinner    Meal `json:"dinner"`
}

type ShoppingList struct {
	Proteins   []string `json:"proteins"`
	Carbs      []string `json:"carbs"`
	Fats       []string `json:"fats"`
	Vegetables []string `json:"vegetables"`
	Others     []string `json:"others"`
}

type NutritionPlan struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Type          PlanKind      `json:"type"`
	Duration      string        `json:"duration"`
	CreatedAt     time.Time     `json:"created_at"`
	DailyCalories int           `json:"daily_calories"`
	Macros        Macros        `json:"macros"`
	Meals         MealStructure `json:"meals"`
	Guidelines    []string      `json:"guidelines"`
	ShoppingList  ShoppingList  `json:"shopping_list"`
	Notes         string        `json:"notes"`
}

// WorkoutDay is either a training day (DurationMin, Intensity) or a rest day
// (Activity).
type WorkoutDay struct {
	Type        string `json:"type"`
	DurationMin int    `json:"duration,omitempty"`
	Intensity   string `json:"intensity,omitempty"`
	Activity    string `json:"activity,omitempty"`
}

type WeeklySchedule struct {
	Monday    WorkoutDay `json:"monday"`
	Tuesday   WorkoutDay `json:"tuesday"`
	Wednesday WorkoutDay `json:"wednesday"`
	Thursday  WorkoutDay `json:"thursday"`
	Friday    WorkoutDay `json:"friday"`
	Saturday  WorkoutDay `json:"saturday"`
	Sunday    WorkoutDay `json:"sunday"`
}

// Days returns the schedule Monday first.
func (w WeeklySchedule) Days() []WorkoutDay {
	return []WorkoutDay{w.Monday, w.Tuesday, w.Wednesday, w.Thursday, w.Friday, w.Saturday, w.Sunday}
}

type Exercise struct {
	Name      string `json:"name"`
	Sets      string `json:"sets,omitempty"`
	Reps      string `json:"reps,omitempty"`
	Muscle    string `json:"muscle,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Intensity string `json:"intensity,omitempty"`
}

type ExerciseLibrary struct {
	UpperBody []Exercise `json:"upper_body"`
	LowerBody []Exercise `json:"lower_body"`
	Cardio    []Exercise `json:"cardio"`
}

type Progression struct {
	Week1   string `json:"week_1"`
	Week2   string `json:"week_2"`
	Week3   string `json:"week_3"`
	Week4   string `json:"week_4"`
	General string `json:"general"`
}

type FitnessPlan struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Type           PlanKind        `json:"type"`
	Duration       string          `json:"duration"`
	CreatedAt      time.Time       `json:"created_at"`
	FitnessLevel   FitnessLevel    `json:"fitness_level"`
	WeeklySchedule WeeklySchedule  `json:"weekly_schedule"`
	Exercises      ExerciseLibrary `json:"exercises"`
	Progression    Progression     `json:"progression"`
	Notes          string          `json:"notes"`
}

// PlanRecord holds exactly one of Nutrition or Fitness. It encodes as the
// inner plan, discriminated by its "type" field.
type PlanRecord struct {
	Nutrition *NutritionPlan
	Fitness   *FitnessPlan
}

func (r PlanRecord) Kind() PlanKind {
	switch {
	case r.Nutrition != nil:
		return PlanNutrition
	case r.Fitness != nil:
		return PlanFitness
	}
	return ""
}

func (r PlanRecord) ID() string {
	switch {
	case r.Nutrition != nil:
		return r.Nutrition.ID
	case r.Fitness != nil:
		return r.Fitness.ID
	}
	return ""
}

func (r PlanRecord) UserID() string {
	switch {
	case r.Nutrition != nil:
		return r.Nutrition.UserID
	case r.Fitness != nil:
		return r.Fitness.UserID
	}
	return ""
}

func (r PlanRecord) CreatedAt() time.Time {
	switch {
	case r.Nutrition != nil:
		return r.Nutrition.CreatedAt
	case r.Fitness != nil:
		return r.Fitness.CreatedAt
	}
	return time.Time{}
}

func (r PlanRecord) MarshalJSON() ([]byte, error) {
	switch {
	case r.Nutrition != nil && r.Fitness != nil:
		return nil, errors.New("domain: plan record holds both variants")
	case r.Nutrition != nil:
		return json.Marshal(r.Nutrition)
	case r.Fitness != nil:
		return json.Marshal(r.Fitness)
	}
	return []byte("null"), nil
}

func (r *PlanRecord) UnmarshalJSON(b []byte) error {
	var head struct {
		Type PlanKind `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("domain: decode plan type: %w", err)
	}
	*r = PlanRecord{}
	switch head.Type {
	case PlanNutrition:
		r.Nutrition = &NutritionPlan{}
		return json.Unmarshal(b, r.Nutrition)
	case PlanFitness:
		r.Fitness = &FitnessPlan{}
		return json.Unmarshal(b, r.Fitness)
	}
	return fmt.Errorf("domain: unknown plan type %q", head.Type)
}
