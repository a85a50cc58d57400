// Package handler adapts API Gateway proxy events to the chat service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"coach-agent/internal/domain"
	"coach-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// UseCase is the service surface the routes call.
type UseCase interface {
	Process(ctx context.Context, in usecase.ChatInput) (usecase.Response, error)
	Profile(ctx context.Context, userID string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (domain.UserProfile, error)
	Plan(ctx context.Context, userID, planID string) (domain.PlanRecord, error)
	Plans(ctx context.Context, userID string, limit int) ([]domain.PlanRecord, error)
}

type Handler struct {
	uc  UseCase
	log *slog.Logger
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type profileRequest struct {
	UserID  string              `json:"userId"`
	Profile domain.ProfilePatch `json:"profile"`
}

type plansResponse struct {
	Plans []domain.PlanRecord `json:"plans"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handle is the Lambda entry point.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	log := h.log.With("correlation_id", corrID, "method", req.HTTPMethod, "path", req.Path)

	status, body := h.route(ctx, log, req)
	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("encode response", "err", err)
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	log.Info("request served", "status", status)

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(payload),
	}, nil
}

func (h *Handler) route(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	path := strings.TrimRight(req.Path, "/")
	switch {
	case path == "/chat" && req.HTTPMethod == http.MethodPost:
		return h.chat(ctx, log, req)
	case path == "/profile" && req.HTTPMethod == http.MethodGet:
		return h.getProfile(ctx, log, req)
	case path == "/profile" && req.HTTPMethod == http.MethodPut:
		return h.putProfile(ctx, log, req)
	case path == "/plans" && req.HTTPMethod == http.MethodGet:
		return h.getPlans(ctx, log, req)
	case path == "/chat" || path == "/profile" || path == "/plans":
		return http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}
	}
	return http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Reason: "unknown_route"}
}

func (h *Handler) chat(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	var in chatRequest
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return invalidBody(log, err)
	}
	out, err := h.uc.Process(ctx, usecase.ChatInput{UserID: in.UserID, Message: in.Message})
	if err != nil {
		return mapError(log, err)
	}
	return http.StatusOK, out
}

func (h *Handler) getProfile(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	out, err := h.uc.Profile(ctx, req.QueryStringParameters["userId"])
	if err != nil {
		return mapError(log, err)
	}
	return http.StatusOK, out
}

func (h *Handler) putProfile(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	var in profileRequest
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return invalidBody(log, err)
	}
	out, err := h.uc.UpdateProfile(ctx, in.UserID, in.Profile)
	if err != nil {
		return mapError(log, err)
	}
	return http.StatusOK, out
}

func (h *Handler) getPlans(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	q := req.QueryStringParameters
	userID := q["userId"]
	if planID := q["planId"]; planID != "" {
		out, err := h.uc.Plan(ctx, userID, planID)
		if err != nil {
			return mapError(log, err)
		}
		return http.StatusOK, out
	}

	limit := 0
	if raw := q["limit"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_limit"}
		}
		limit = n
	}
	out, err := h.uc.Plans(ctx, userID, limit)
	if err != nil {
		return mapError(log, err)
	}
	return http.StatusOK, plansResponse{Plans: out}
}

func invalidBody(log *slog.Logger, err error) (int, any) {
	log.Warn("invalid request body", "err", err)
	return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"}
}

func mapError(log *slog.Logger, err error) (int, any) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.Error("unexpected error", "err", err)
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}

	status := http.StatusInternalServerError
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorNotFound:
		status = http.StatusNotFound
	case usecase.ErrorUpstream:
		status = http.StatusBadGateway
	}
	if status >= 500 {
		log.Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	} else {
		log.Info("request rejected", "code", ucErr.Code, "reason", ucErr.Reason)
	}
	return status, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
}

// correlationID returns the caller's X-Correlation-Id, matched without
// regard to case, or a fresh UUID.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
