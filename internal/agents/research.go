package agents

import (
	"context"

	"coach-agent/internal/domain"
)

const researchTemperature = 0.2

// Research answers evidence questions. It never asks for a plan.
type Research struct {
	cfg Config
}

func NewResearch(cfg Config) (*Research, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Research{cfg: cfg}, nil
}

func (r *Research) Handle(ctx context.Context, req domain.HandlerRequest) (domain.HandlerReply, error) {
	content, err := ask(ctx, r.cfg, researchTemperature, researchSystemPrompt, req.Message, req.Context)
	if err != nil {
		return domain.HandlerReply{}, err
	}
	return domain.HandlerReply{
		Content:  content,
		Metadata: map[string]any{"research_based": true},
	}, nil
}
