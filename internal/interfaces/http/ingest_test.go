package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moneyvoice/internal/domain/commit"
	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/domain/resolve"
	"moneyvoice/internal/domain/runlog"
	"moneyvoice/internal/infrastructure/ledgerstore"
	"moneyvoice/internal/shared/middleware"
)

// MockIngester implements Ingester for testing
type MockIngester struct {
	IngestUtteranceFunc func(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error)
	IngestRecordsFunc   func(ctx context.Context, userID int64, records []event.RawRecord) (*commit.RunResult, error)
	RecentRunsFunc      func(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error)
}

func (m *MockIngester) IngestUtterance(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error) {
	if m.IngestUtteranceFunc != nil {
		return m.IngestUtteranceFunc(ctx, userID, utterance)
	}
	return &commit.RunResult{}, nil
}

func (m *MockIngester) IngestRecords(ctx context.Context, userID int64, records []event.RawRecord) (*commit.RunResult, error) {
	if m.IngestRecordsFunc != nil {
		return m.IngestRecordsFunc(ctx, userID, records)
	}
	return &commit.RunResult{}, nil
}

func (m *MockIngester) RecentRuns(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error) {
	if m.RecentRunsFunc != nil {
		return m.RecentRunsFunc(ctx, userID, limit)
	}
	return nil, nil
}

func ingestRequest(t *testing.T, userID int64, body any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", bytes.NewReader(raw))
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	return req
}

func TestHandleIngest_Utterance(t *testing.T) {
	var gotUtterance string
	mock := &MockIngester{
		IngestUtteranceFunc: func(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error) {
			gotUtterance = utterance
			return &commit.RunResult{
				RunID:     "run-1",
				Committed: 2,
				Suggestions: []commit.CardSuggestion{
					{Description: "dinner", Card: ledgerstore.CreditCard{ID: "card-1", Name: "Sapphire"}},
				},
			}, nil
		},
	}
	handler := NewIngestHandler(mock, nil)

	rr := httptest.NewRecorder()
	handler.HandleIngest(rr, ingestRequest(t, 1, IngestRequest{Utterance: "spent $40 on dinner"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotUtterance != "spent $40 on dinner" {
		t.Errorf("service got utterance %q", gotUtterance)
	}

	var resp IngestResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID != "run-1" || resp.Committed != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].CardID != "card-1" {
		t.Errorf("unexpected suggestions: %+v", resp.Suggestions)
	}
}

func TestHandleIngest_Records(t *testing.T) {
	var gotRecords []event.RawRecord
	mock := &MockIngester{
		IngestRecordsFunc: func(ctx context.Context, userID int64, records []event.RawRecord) (*commit.RunResult, error) {
			gotRecords = records
			return &commit.RunResult{RunID: "run-2", Committed: 1}, nil
		},
	}
	handler := NewIngestHandler(mock, nil)

	body := IngestRequest{Records: []event.RawRecord{
		{EventType: "transaction", Data: map[string]any{"amount": 12.5}},
	}}

	rr := httptest.NewRecorder()
	handler.HandleIngest(rr, ingestRequest(t, 1, body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(gotRecords) != 1 || gotRecords[0].EventType != "transaction" {
		t.Errorf("service got records %+v", gotRecords)
	}
}

func TestHandleIngest_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           IngestRequest
		expectedStatus int
	}{
		{
			name:           "neither utterance nor records",
			body:           IngestRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "both utterance and records",
			body: IngestRequest{
				Utterance: "hi",
				Records:   []event.RawRecord{{EventType: "transaction"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "async without queue",
			body:           IngestRequest{Utterance: "hi", Async: true},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewIngestHandler(&MockIngester{}, nil)

			rr := httptest.NewRecorder()
			handler.HandleIngest(rr, ingestRequest(t, 1, tt.body))

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestHandleIngest_Unauthorized(t *testing.T) {
	handler := NewIngestHandler(&MockIngester{}, nil)

	rr := httptest.NewRecorder()
	handler.HandleIngest(rr, ingestRequest(t, 0, IngestRequest{Utterance: "hi"}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestHandleIngest_Async(t *testing.T) {
	var queuedUserID int64
	var queuedUtterance string
	enqueue := func(userID int64, utterance string) error {
		queuedUserID = userID
		queuedUtterance = utterance
		return nil
	}

	mock := &MockIngester{
		IngestUtteranceFunc: func(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error) {
			t.Error("synchronous path should not run for async requests")
			return nil, nil
		},
	}
	handler := NewIngestHandler(mock, enqueue)

	rr := httptest.NewRecorder()
	handler.HandleIngest(rr, ingestRequest(t, 7, IngestRequest{Utterance: "log my rent", Async: true}))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if queuedUserID != 7 || queuedUtterance != "log my rent" {
		t.Errorf("queued (%d, %q)", queuedUserID, queuedUtterance)
	}
}

func TestHandleIngest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "preferences missing",
			err:            prefs.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "sell without holding",
			err: &commit.PhaseError{
				Phase: "phase 1", Failed: 1, Total: 1,
				Err: resolve.ErrNoHoldingToSell,
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "store rejected batch",
			err: &commit.PhaseError{
				Phase: "phase 2", Failed: 1, Total: 3,
				Err: errors.New("status 500"),
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "parser failure",
			err:            errors.New("model returned garbage"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockIngester{
				IngestUtteranceFunc: func(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error) {
					return nil, tt.err
				},
			}
			handler := NewIngestHandler(mock, nil)

			rr := httptest.NewRecorder()
			handler.HandleIngest(rr, ingestRequest(t, 1, IngestRequest{Utterance: "hi"}))

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestHandleRecentRuns(t *testing.T) {
	mock := &MockIngester{
		RecentRunsFunc: func(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error) {
			if limit != 5 {
				t.Errorf("expected limit 5, got %d", limit)
			}
			return []*runlog.Run{
				{ID: "run-1", Status: runlog.StatusCompleted, Committed: 3},
			}, nil
		},
	}
	handler := NewIngestHandler(mock, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, int64(1)))

	rr := httptest.NewRecorder()
	handler.HandleRecentRuns(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp []RunResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "run-1" || resp[0].Status != "completed" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
