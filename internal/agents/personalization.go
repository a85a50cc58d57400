package agents

import (
	"context"
	"strconv"

	"coach-agent/internal/domain"
)

const personalizationTemperature = 0.4

var profileUpdatePhrases = []string{
	"cambié", "actualizar", "modificar", "nuevo objetivo", "ahora peso", "mi edad", "restricción", "alergia",
}

// Personalization onboards new users and keeps existing profiles current.
type Personalization struct {
	cfg Config
}

func NewPersonalization(cfg Config) (*Personalization, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Personalization{cfg: cfg}, nil
}

func (p *Personalization) Handle(ctx context.Context, req domain.HandlerRequest) (domain.HandlerReply, error) {
	newUser := req.Profile.IsEmpty()
	metadata := map[string]any{
		"new_user":              newUser,
		"profile_update_needed": containsAny(req.Message, profileUpdatePhrases),
	}
	if newUser {
		return domain.HandlerReply{Content: welcomeQuestionnaire, Metadata: metadata}, nil
	}

	content, err := ask(ctx, p.cfg, personalizationTemperature, personalizationSystemPrompt,
		userInput(personalProfile(req.Profile), req.Message), req.Context)
	if err != nil {
		return domain.HandlerReply{}, err
	}
	return domain.HandlerReply{Content: content, Metadata: metadata}, nil
}

func personalProfile(p domain.UserProfile) string {
	age := "No especificada"
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	var l profileLines
	l.add("Objetivos", orDefault(p.Goals, "No especificados"))
	l.add("Edad", age)
	l.add("Nivel de actividad", orDefault(string(p.ActivityLevel), "No especificado"))
	l.add("Restricciones", orDefault(p.Restrictions, "Ninguna"))
	return l.render("")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
