package agents

import (
	"context"
	"log/slog"
	"strings"

	"coach-agent/internal/domain"
	"coach-agent/internal/integrations/exercisedb"
)

const fitnessTemperature = 0.3

var fitnessPlanPhrases = []string{
	"rutina", "plan de entrenamiento", "ejercicios para", "programa de", "workout",
}

// Exercises is what the fitness handler needs from an exercise lookup.
type Exercises interface {
	ByTarget(ctx context.Context, target string) ([]exercisedb.Exercise, error)
}

// Fitness answers training questions, grounding its prompt on catalogue
// exercises when the message names a muscle group.
type Fitness struct {
	cfg       Config
	exercises Exercises
	log       *slog.Logger
}

// NewFitness builds the handler. exercises may be nil, in which case no
// catalogue lookup is made.
func NewFitness(cfg Config, exercises Exercises) (*Fitness, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Fitness{cfg: cfg, exercises: exercises, log: cfg.logger(domain.TagFitness)}, nil
}

func (f *Fitness) Handle(ctx context.Context, req domain.HandlerRequest) (domain.HandlerReply, error) {
	metadata := map[string]any{"user_profile_used": !req.Profile.IsEmpty()}

	profile := fitnessProfile(req.Profile)
	if target, ok := MuscleTarget(req.Message); ok && f.exercises != nil {
		metadata["exercise_target"] = target
		found, err := f.exercises.ByTarget(ctx, target)
		if err != nil {
			f.log.Warn("exercise lookup failed", "user_id", req.UserID, "target", target, "err", err)
		} else if len(found) > 0 {
			profile += "\n\nEjercicios de referencia para " + target + ":\n" + exerciseLines(found)
		}
	}

	content, err := ask(ctx, f.cfg, fitnessTemperature, fitnessSystemPrompt, userInput(profile, req.Message), req.Context)
	if err != nil {
		return domain.HandlerReply{}, err
	}

	reply := domain.HandlerReply{Content: content, Metadata: metadata}
	if containsAny(req.Message, fitnessPlanPhrases) {
		reply.WantsPlan = true
		reply.PlanHints = &domain.PlanHints{Kind: domain.PlanFitness, Duration: "4_weeks", Notes: content}
	}
	return reply, nil
}

func fitnessProfile(p domain.UserProfile) string {
	var l profileLines
	l.add("Nivel fitness", string(p.FitnessLevel))
	l.add("Objetivos", p.Goals)
	l.add("Lesiones/limitaciones", p.Injuries)
	l.add("Equipo disponible", p.Equipment)
	l.add("Tiempo disponible", p.TimeAvailable)
	return l.render("Sin información específica de fitness")
}

func exerciseLines(found []exercisedb.Exercise) string {
	lines := make([]string, 0, len(found))
	for _, e := range found {
		line := "- " + e.Name
		if e.Equipment != "" {
			line += " (" + e.Equipment + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
