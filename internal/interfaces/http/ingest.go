package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"moneyvoice/internal/domain/commit"
	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/domain/resolve"
	"moneyvoice/internal/domain/runlog"
	"moneyvoice/internal/logger"
	"moneyvoice/internal/shared/middleware"
)

// Ingester is the slice of the ingest service the handler needs.
type Ingester interface {
	IngestUtterance(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error)
	IngestRecords(ctx context.Context, userID int64, records []event.RawRecord) (*commit.RunResult, error)
	RecentRuns(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error)
}

// EnqueueFunc hands an utterance to the background worker pool. A nil
// func disables asynchronous ingestion.
type EnqueueFunc func(userID int64, utterance string) error

type IngestHandler struct {
	service Ingester
	enqueue EnqueueFunc
}

func NewIngestHandler(service Ingester, enqueue EnqueueFunc) *IngestHandler {
	return &IngestHandler{service: service, enqueue: enqueue}
}

type IngestRequest struct {
	Utterance string            `json:"utterance,omitempty"`
	Records   []event.RawRecord `json:"records,omitempty"`
	Async     bool              `json:"async,omitempty"`
}

type CardSuggestionResponse struct {
	Description string `json:"description"`
	CardID      string `json:"cardId"`
	CardName    string `json:"cardName"`
}

type IngestResponse struct {
	RunID        string                   `json:"runId"`
	Committed    int                      `json:"committed"`
	DefaultsUsed int                      `json:"defaultsUsed"`
	Messages     []string                 `json:"messages,omitempty"`
	Suggestions  []CardSuggestionResponse `json:"suggestions,omitempty"`
}

type RunResponse struct {
	ID           string `json:"id"`
	Utterance    string `json:"utterance,omitempty"`
	Events       int    `json:"events"`
	Committed    int    `json:"committed"`
	DefaultsUsed int    `json:"defaultsUsed"`
	Suggestions  int    `json:"suggestions"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	StartedAt    string `json:"startedAt"`
	FinishedAt   string `json:"finishedAt"`
}

// HandleIngest accepts an utterance (or pre-parsed records) and commits
// the extracted events to the user's ledger store.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if (req.Utterance == "") == (len(req.Records) == 0) {
		http.Error(w, "exactly one of utterance or records is required", http.StatusBadRequest)
		return
	}

	if req.Async {
		if req.Utterance == "" {
			http.Error(w, "async ingestion requires an utterance", http.StatusBadRequest)
			return
		}
		if h.enqueue == nil {
			http.Error(w, "background ingestion is disabled", http.StatusServiceUnavailable)
			return
		}
		if err := h.enqueue(userID, req.Utterance); err != nil {
			http.Error(w, "ingestion queue is full", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
		return
	}

	var (
		result *commit.RunResult
		err    error
	)
	if req.Utterance != "" {
		result, err = h.service.IngestUtterance(r.Context(), userID, req.Utterance)
	} else {
		result, err = h.service.IngestRecords(r.Context(), userID, req.Records)
	}
	if err != nil {
		writeIngestError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIngestResponse(result))
}

// HandleRecentRuns returns the user's latest journaled runs.
func (h *IngestHandler) HandleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.service.RecentRuns(r.Context(), userID, limit)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var phaseErr *commit.PhaseError
	switch {
	case errors.Is(err, prefs.ErrNotFound):
		http.Error(w, "preferences not configured", http.StatusNotFound)
	case errors.Is(err, resolve.ErrNoHoldingToSell):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &phaseErr):
		log.Error().Err(err).Msg("commit failed")
		http.Error(w, "ledger store rejected part of the batch", http.StatusBadGateway)
	default:
		log.Error().Err(err).Msg("ingestion failed")
		http.Error(w, "Failed to process utterance", http.StatusInternalServerError)
	}
}

func toIngestResponse(result *commit.RunResult) IngestResponse {
	resp := IngestResponse{
		RunID:        result.RunID,
		Committed:    result.Committed,
		DefaultsUsed: result.DefaultsUsed,
	}
	for _, ev := range result.Informational {
		switch ev.Kind {
		case event.KindQueryResponse:
			resp.Messages = append(resp.Messages, ev.Query.Answer)
		case event.KindNeedMoreInfo:
			resp.Messages = append(resp.Messages, ev.NeedInfo.Prompt)
		}
	}
	for _, s := range result.Suggestions {
		resp.Suggestions = append(resp.Suggestions, CardSuggestionResponse{
			Description: s.Description,
			CardID:      s.Card.ID,
			CardName:    s.Card.Name,
		})
	}
	return resp
}

func toRunResponse(run *runlog.Run) RunResponse {
	return RunResponse{
		ID:           run.ID,
		Utterance:    run.Utterance,
		Events:       run.Events,
		Committed:    run.Committed,
		DefaultsUsed: run.DefaultsUsed,
		Suggestions:  run.Suggestions,
		Status:       string(run.Status),
		Error:        run.Error,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
		FinishedAt:   run.FinishedAt.Format(time.RFC3339),
	}
}
