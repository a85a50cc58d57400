package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"coach-agent/internal/domain"
	"coach-agent/internal/plan"
)

const nutritionTemperature = 0.3

var nutritionPlanPhrases = []string{
	"plan de alimentación", "dieta completa", "menú semanal", "plan nutricional", "qué comer",
}

// Nutrition answers diet and nutrient questions. Its prompt carries the
// calorie and macro targets the plan synthesizer would use.
type Nutrition struct {
	cfg Config
	log *slog.Logger
}

func NewNutrition(cfg Config) (*Nutrition, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Nutrition{cfg: cfg, log: cfg.logger(domain.TagNutrition)}, nil
}

func (n *Nutrition) Handle(ctx context.Context, req domain.HandlerRequest) (domain.HandlerReply, error) {
	calories := plan.DailyCalories(req.Profile)
	macros := plan.Macros(calories, req.Profile.Goals)

	content, err := ask(ctx, n.cfg, nutritionTemperature, nutritionSystemPrompt,
		userInput(nutritionProfile(req.Profile, calories, macros), req.Message), req.Context)
	if err != nil {
		return domain.HandlerReply{}, err
	}

	reply := domain.HandlerReply{
		Content: content,
		Metadata: map[string]any{
			"user_profile_used": !req.Profile.IsEmpty(),
			"daily_calories":    calories,
		},
	}
	if containsAny(req.Message, nutritionPlanPhrases) {
		reply.WantsPlan = true
		reply.PlanHints = &domain.PlanHints{Kind: domain.PlanNutrition, Duration: "7_days", Notes: content}
	}
	n.log.Debug("nutrition reply", "user_id", req.UserID, "wants_plan", reply.WantsPlan)
	return reply, nil
}

func nutritionProfile(p domain.UserProfile, calories int, m domain.Macros) string {
	var l profileLines
	if p.Age != nil {
		l.add("Edad", strconv.Itoa(*p.Age)+" años")
	}
	if p.WeightKg != nil {
		l.add("Peso", strconv.FormatFloat(*p.WeightKg, 'f', -1, 64)+" kg")
	}
	if p.HeightCm != nil {
		l.add("Altura", strconv.FormatFloat(*p.HeightCm, 'f', -1, 64)+" cm")
	}
	l.add("Nivel de actividad", string(p.ActivityLevel))
	l.add("Objetivos", p.Goals)
	l.add("Restricciones dietéticas", p.Restrictions)
	l.add("Calorías diarias objetivo", strconv.Itoa(calories)+" kcal")
	l.add("Macros objetivo", fmt.Sprintf("proteína %dg, carbohidratos %dg, grasas %dg, fibra %dg",
		m.ProteinG, m.CarbsG, m.FatG, m.FiberG))
	return l.render("Sin información de perfil disponible")
}
