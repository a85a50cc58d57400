package plan

import (
	"strings"

	"coach-agent/internal/domain"
)

// Builders return fresh values so no two plans share a slice.

func mealStructure() domain.MealStructure {
	return domain.MealStructure{
		Breakfast: domain.Meal{
			Time:               "07:00-09:00",
			CaloriesPercentage: 25,
			Suggestions: []string{
				"Avena con frutas y frutos secos",
				"Tostadas integrales con aguacate",
				"Yogur griego con granola",
			},
		},
		Lunch: domain.Meal{
			Time:               "12:00-14:00",
			CaloriesPercentage: 35,
			Suggestions: []string{
				"Ensalada con proteína (pollo/pescado/legumbres)",
				"Bowl de quinoa con verduras",
				"Wrap integral con hummus y vegetales",
			},
		},
		Snack: domain.Meal{
			Time:               "16:00-17:00",
			CaloriesPercentage: 10,
			Suggestions: []string{
				"Frutas con frutos secos",
				"Yogur natural",
				"Batido de proteínas",
			},
		},
		Dinner: domain.Meal{
			Time:               "19:00-21:00",
			CaloriesPercentage: 30,
			Suggestions: []string{
				"Pescado con verduras al vapor",
				"Pollo a la plancha con ensalada",
				"Legumbres con arroz integral",
			},
		},
	}
}

func nutritionGuidelines(restrictions string) []string {
	guidelines := []string{
		"Bebe al menos 2-3 litros de agua al día",
		"Come cada 3-4 horas para mantener el metabolismo activo",
		"Incluye proteína en cada comida principal",
		"Consume al menos 5 porciones de frutas y verduras al día",
		"Limita alimentos procesados y azúcares añadidos",
	}

	r := strings.ToLower(restrictions)
	if containsAny(r, "diabetic", "diabetes") {
		guidelines = append(guidelines,
			"Controla el índice glucémico de los carbohidratos",
			"Evita azúcares simples y harinas refinadas",
		)
	}
	if containsAny(r, "vegetarian", "vegetariano") {
		guidelines = append(guidelines,
			"Combina legumbres con cereales para proteína completa",
			"Asegúrate de obtener suficiente B12 y hierro",
		)
	}
	return guidelines
}

// shoppingList takes the macro targets but does not vary with them yet.
func shoppingList(_ domain.Macros) domain.ShoppingList {
	return domain.ShoppingList{
		Proteins: []string{
			"Pollo (pechuga)", "Pescado (salmón, atún)", "Huevos",
			"Legumbres (lentejas, garbanzos)", "Yogur griego",
		},
		Carbs: []string{
			"Avena", "Quinoa", "Arroz integral", "Pan integral",
			"Patatas", "Frutas (plátano, manzana, bayas)",
		},
		Fats: []string{
			"Aguacate", "Frutos secos", "Aceite de oliva",
			"Semillas (chía, lino)", "Pescado graso",
		},
		Vegetables: []string{
			"Espinacas", "Brócoli", "Tomates", "Pepino",
			"Pimientos", "Cebolla", "Ajo",
		},
		Others: []string{
			"Especias variadas", "Limón", "Vinagre",
			"Té verde", "Agua con gas",
		},
	}
}

func train(kind string, minutes int, intensity string) domain.WorkoutDay {
	return domain.WorkoutDay{Type: kind, DurationMin: minutes, Intensity: intensity}
}

func rest(activity string) domain.WorkoutDay {
	return domain.WorkoutDay{Type: "rest", Activity: activity}
}

func weeklySchedule(level domain.FitnessLevel) domain.WeeklySchedule {
	switch level {
	case domain.FitnessIntermediate:
		return domain.WeeklySchedule{
			Monday:    train("upper_body", 60, "moderate"),
			Tuesday:   train("lower_body", 60, "moderate"),
			Wednesday: train("cardio", 30, "moderate"),
			Thursday:  train("upper_body", 60, "high"),
			Friday:    train("lower_body", 60, "high"),
			Saturday:  train("full_body", 45, "light"),
			Sunday:    rest("stretching"),
		}
	case domain.FitnessAdvanced:
		return domain.WeeklySchedule{
			Monday:    train("push", 75, "high"),
			Tuesday:   train("pull", 75, "high"),
			Wednesday: train("legs", 90, "high"),
			Thursday:  train("push", 75, "moderate"),
			Friday:    train("pull", 75, "moderate"),
			Saturday:  train("legs", 90, "moderate"),
			Sunday:    rest("yoga o movilidad"),
		}
	default:
		return domain.WeeklySchedule{
			Monday:    train("full_body", 45, "moderate"),
			Tuesday:   rest("caminar 30min"),
			Wednesday: train("full_body", 45, "moderate"),
			Thursday:  rest("yoga o stretching"),
			Friday:    train("full_body", 45, "moderate"),
			Saturday:  train("cardio", 30, "light"),
			Sunday:    rest("descanso completo"),
		}
	}
}

func exerciseLibrary() domain.ExerciseLibrary {
	return domain.ExerciseLibrary{
		UpperBody: []domain.Exercise{
			{Name: "Push-ups", Sets: "3", Reps: "8-15", Muscle: "chest, triceps"},
			{Name: "Pull-ups", Sets: "3", Reps: "5-12", Muscle: "back, biceps"},
			{Name: "Shoulder Press", Sets: "3", Reps: "10-15", Muscle: "shoulders"},
			{Name: "Rows", Sets: "3", Reps: "10-15", Muscle: "back"},
		},
		LowerBody: []domain.Exercise{
			{Name: "Squats", Sets: "3", Reps: "12-20", Muscle: "quads, glutes"},
			{Name: "Deadlifts", Sets: "3", Reps: "8-12", Muscle: "hamstrings, glutes"},
			{Name: "Lunges", Sets: "3", Reps: "10-15 each leg", Muscle: "legs, glutes"},
			{Name: "Calf Raises", Sets: "3", Reps: "15-25", Muscle: "calves"},
		},
		Cardio: []domain.Exercise{
			{Name: "Running", Duration: "20-45min", Intensity: "moderate"},
			{Name: "Cycling", Duration: "30-60min", Intensity: "moderate"},
			{Name: "Swimming", Duration: "20-40min", Intensity: "moderate"},
			{Name: "HIIT", Duration: "15-25min", Intensity: "high"},
		},
	}
}

func progression() domain.Progression {
	return domain.Progression{
		Week1:   "Enfócate en la técnica correcta, usa pesos ligeros",
		Week2:   "Aumenta ligeramente el peso o las repeticiones",
		Week3:   "Incrementa intensidad, mantén buena forma",
		Week4:   "Deload week - reduce intensidad para recuperación",
		General: "Aumenta peso/reps cuando puedas completar todas las series cómodamente",
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
