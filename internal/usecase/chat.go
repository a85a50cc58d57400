package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"coach-agent/internal/domain"
	"coach-agent/internal/routing"
	"coach-agent/internal/session"
)

const (
	defaultContextLimit     = session.DefaultContextLimit
	defaultMaxMessageLength = 2000
	defaultPlanListLimit    = 20
	maxPlanListLimit        = 100

	// FailureMessage is the fixed reply when a turn cannot be completed.
	FailureMessage = "Lo siento, ha ocurrido un error procesando tu consulta. Por favor, inténtalo de nuevo."
	// HandlerApology replaces the content of a domain handler that failed.
	HandlerApology = "Lo siento, ahora mismo no puedo responder a tu consulta. Por favor, inténtalo de nuevo en unos momentos."
)

type SessionStore interface {
	GetContext(ctx context.Context, userID string, limit int) []domain.ConversationEntry
	AppendTurn(ctx context.Context, userID string, entry domain.ConversationEntry)
	GetProfile(ctx context.Context, userID string) domain.UserProfile
	MergeProfile(ctx context.Context, userID string, patch domain.ProfilePatch) domain.UserProfile
	CacheLookup(ctx context.Context, key string, value any, ttl time.Duration)
	GetCachedLookup(ctx context.Context, key string) (json.RawMessage, bool)
}

// DomainHandler answers messages routed to one HandlerTag.
type DomainHandler interface {
	Handle(ctx context.Context, req domain.HandlerRequest) (domain.HandlerReply, error)
}

type PlanSynthesizer interface {
	Synthesize(userID string, profile domain.UserProfile, hints domain.PlanHints) (domain.PlanRecord, error)
}

// PlanSink is the durable plan store.
type PlanSink interface {
	Persist(ctx context.Context, plan domain.PlanRecord) error
	Plan(ctx context.Context, userID, planID string) (domain.PlanRecord, bool, error)
	Plans(ctx context.Context, userID string, limit int) ([]domain.PlanRecord, error)
}

// ChatService routes each message to a domain handler, keeps the session
// memory current and synthesizes plans on request.
type ChatService struct {
	store    SessionStore
	handlers map[domain.HandlerTag]DomainHandler
	synth    PlanSynthesizer
	sink     PlanSink

	contextLimit     int
	maxMessageLength int
	log              *slog.Logger
	now              func() time.Time
}

type ChatInput struct {
	UserID  string
	Message string
}

// Response is the composite answer to one chat turn.
type Response struct {
	HandlerTag domain.HandlerTag  `json:"handlerTag"`
	Content    string             `json:"content"`
	Plan       *domain.PlanRecord `json:"plan"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	Error      string             `json:"error,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

type Option func(*ChatService)

func WithContextLimit(n int) Option {
	return func(s *ChatService) {
		if n > 0 {
			s.contextLimit = n
		}
	}
}

func WithMaxMessageLength(n int) Option {
	return func(s *ChatService) {
		if n > 0 {
			s.maxMessageLength = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ChatService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewChatService(store SessionStore, handlers map[domain.HandlerTag]DomainHandler, synth PlanSynthesizer, sink PlanSink, opts ...Option) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if synth == nil {
		return nil, errors.New("usecase: plan synthesizer must not be nil")
	}
	if sink == nil {
		return nil, errors.New("usecase: plan sink must not be nil")
	}
	registry := make(map[domain.HandlerTag]DomainHandler, len(domain.HandlerTags))
	for _, tag := range domain.HandlerTags {
		h, ok := handlers[tag]
		if !ok || h == nil {
			return nil, fmt.Errorf("usecase: no handler registered for %q", tag)
		}
		registry[tag] = h
	}

	s := &ChatService{
		store:            store,
		handlers:         registry,
		synth:            synth,
		sink:             sink,
		contextLimit:     defaultContextLimit,
		maxMessageLength: defaultMaxMessageLength,
		log:              slog.Default(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "chat")
	return s, nil
}

// Process runs one chat turn. The only errors returned are validation
// errors; every failure after that is reported inside the Response.
func (s *ChatService) Process(ctx context.Context, in ChatInput) (Response, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return Response{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return Response{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len([]rune(message)) > s.maxMessageLength {
		return Response{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	return s.turn(ctx, userID, message), nil
}

func (s *ChatService) turn(ctx context.Context, userID, message string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("chat turn aborted", "user_id", userID, "err", r)
			resp = s.failure(fmt.Errorf("internal fault: %v", r))
		}
	}()

	history, profile := s.loadSession(ctx, userID)

	tag := routing.Route(message, history)
	s.log.Info("routing message", "user_id", userID, "handler", tag)

	reply := s.dispatch(ctx, tag, domain.HandlerRequest{
		UserID:  userID,
		Message: message,
		Profile: profile,
		Context: history,
	})

	metadata := map[string]any{}
	maps.Copy(metadata, reply.Metadata)

	var plan *domain.PlanRecord
	if reply.WantsPlan {
		rec, err := s.synth.Synthesize(userID, profile, planHints(tag, reply))
		if err != nil {
			s.log.Warn("plan synthesis failed", "user_id", userID, "handler", tag, "err", err)
			metadata["plan_error"] = err.Error()
		} else {
			plan = &rec
		}
	}

	// The caller may disconnect; writes already decided on still land.
	persistCtx := context.WithoutCancel(ctx)
	s.store.AppendTurn(persistCtx, userID, domain.ConversationEntry{
		Timestamp:     s.now().UTC(),
		UserMessage:   message,
		AgentResponse: reply.Content,
		Agent:         tag,
	})
	if plan != nil {
		s.persistPlan(persistCtx, *plan)
	}

	return Response{
		HandlerTag: tag,
		Content:    reply.Content,
		Plan:       plan,
		Metadata:   metadata,
		Timestamp:  s.now().UTC(),
	}
}

func (s *ChatService) loadSession(ctx context.Context, userID string) ([]domain.ConversationEntry, domain.UserProfile) {
	var (
		g       errgroup.Group
		history []domain.ConversationEntry
		profile domain.UserProfile
	)
	g.Go(func() error {
		history = s.store.GetContext(ctx, userID, s.contextLimit)
		return nil
	})
	g.Go(func() error {
		profile = s.store.GetProfile(ctx, userID)
		return nil
	})
	_ = g.Wait()
	return history, profile
}

func (s *ChatService) dispatch(ctx context.Context, tag domain.HandlerTag, req domain.HandlerRequest) domain.HandlerReply {
	reply, err := s.handle(ctx, tag, req)
	if err != nil {
		s.log.Error("domain handler failed", "user_id", req.UserID, "handler", tag, "err", err)
		return domain.HandlerReply{
			Content:  HandlerApology,
			Metadata: map[string]any{"error": err.Error()},
		}
	}
	return reply
}

// handle converts a handler panic into an error so the turn carries on.
func (s *ChatService) handle(ctx context.Context, tag domain.HandlerTag, req domain.HandlerRequest) (reply domain.HandlerReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = domain.HandlerReply{}, fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handlers[tag].Handle(ctx, req)
}

func (s *ChatService) persistPlan(ctx context.Context, plan domain.PlanRecord) {
	s.store.CacheLookup(ctx, session.PlanCacheKey(plan.ID()), plan, session.PlanBackupTTL)
	if err := s.sink.Persist(ctx, plan); err != nil {
		s.log.Error("persist plan failed", "user_id", plan.UserID(), "plan_id", plan.ID(), "err", err)
		return
	}
	s.log.Info("plan saved", "user_id", plan.UserID(), "plan_id", plan.ID())
}

func (s *ChatService) failure(err error) Response {
	return Response{
		HandlerTag: domain.TagError,
		Content:    FailureMessage,
		Error:      err.Error(),
		Timestamp:  s.now().UTC(),
	}
}

// planHints fills in the plan kind from the handler tag when the handler
// left it out.
func planHints(tag domain.HandlerTag, reply domain.HandlerReply) domain.PlanHints {
	var hints domain.PlanHints
	if reply.PlanHints != nil {
		hints = *reply.PlanHints
	}
	if hints.Kind == "" {
		switch tag {
		case domain.TagNutrition:
			hints.Kind = domain.PlanNutrition
		case domain.TagFitness:
			hints.Kind = domain.PlanFitness
		}
	}
	if hints.Notes == "" {
		hints.Notes = reply.Content
	}
	return hints
}
