// Package httptransport is the thin HTTP layer over the decision, analyst,
// and explanation services. Handlers decode, delegate, and translate faults;
// business logic stays in the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fraudshield/internal/domain"
	"fraudshield/internal/platform/middleware"
	"fraudshield/pkg/faults"
	"fraudshield/pkg/httputil"
	"fraudshield/pkg/requestcontext"
)

const maxBodyBytes = 64 << 10

// Decider is the orchestrator surface the transport needs.
type Decider interface {
	Decide(ctx context.Context, txn domain.Transaction) (domain.DecisionRecord, error)
}

// AnalystService is the analyst surface the transport needs.
type AnalystService interface {
	Queue(ctx context.Context, actionFilter string, limit int) ([]domain.DecisionRecord, error)
	RecordAction(ctx context.Context, action domain.AnalystAction) (domain.AnalystAction, error)
}

// ExplanationReader fetches stored explanations by transaction reference.
type ExplanationReader interface {
	FindByTransaction(ctx context.Context, txnRef string) (domain.Explanation, error)
}

type Handler struct {
	decider      Decider
	analyst      AnalystService
	explanations ExplanationReader
	validator    middleware.TokenValidator
	logger       *slog.Logger
}

func New(
	decider Decider,
	analyst AnalystService,
	explanations ExplanationReader,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		decider:      decider,
		analyst:      analyst,
		explanations: explanations,
		validator:    validator,
		logger:       logger,
	}
}

// Register mounts all v1 endpoints. Analyst routes sit behind bearer auth;
// decision submission is service-to-service and authenticated upstream.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/decisions", h.handleDecide)
		r.Get("/decisions/{ref}/explanation", h.handleExplanation)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnalyst(h.validator, h.logger))
			r.Get("/decisions", h.handleQueue)
			r.Post("/analyst/actions", h.handleAnalystAction)
		})
	})
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, err := httputil.Decode[DecisionRequest](r, maxBodyBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid decision request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.decider.Decide(ctx, req.toDomain())
	if err != nil {
		h.logger.WarnContext(ctx, "decision rejected",
			"request_id", requestcontext.RequestID(ctx),
			"txn_ref", req.Ref,
			"fault", faults.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision served",
		"request_id", requestcontext.RequestID(ctx),
		"txn_ref", rec.TransactionRef,
		"action", rec.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromDecision(rec))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.analyst.Queue(r.Context(), r.URL.Query().Get("action"), 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := QueueResponse{Decisions: make([]DecisionResponse, 0, len(decisions))}
	for _, rec := range decisions {
		resp.Decisions = append(resp.Decisions, fromDecision(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExplanation(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	exp, err := h.explanations.FindByTransaction(r.Context(), ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ExplanationResponse{
		TransactionRef: exp.TransactionRef,
		Trigger:        string(exp.Trigger),
		Text:           exp.Text,
		CreatedAt:      exp.CreatedAt,
	})
}

func (h *Handler) handleAnalystAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[AnalystActionRequest](r, maxBodyBytes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	saved, err := h.analyst.RecordAction(ctx, domain.AnalystAction{
		TransactionRef: req.TransactionRef,
		Type:           domain.AnalystActionType(req.Type),
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "analyst action rejected",
			"request_id", requestcontext.RequestID(ctx),
			"txn_ref", req.TransactionRef,
			"fault", faults.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, AnalystActionResponse{
		ID:             saved.ID,
		TransactionRef: saved.TransactionRef,
		DecisionID:     saved.DecisionID,
		AnalystID:      saved.AnalystID,
		Type:           string(saved.Type),
		Notes:          saved.Notes,
		CreatedAt:      saved.CreatedAt,
	})
}
