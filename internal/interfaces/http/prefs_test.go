package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/infrastructure/crypto"
	"moneyvoice/internal/shared/middleware"
)

// MockPrefsRepo implements prefs.Repository for testing
type MockPrefsRepo struct {
	GetByUserIDFunc func(ctx context.Context, userID int64) (*prefs.Preferences, error)
	UpsertFunc      func(ctx context.Context, params prefs.UpsertParams) (*prefs.Preferences, error)
}

func (m *MockPrefsRepo) GetByUserID(ctx context.Context, userID int64) (*prefs.Preferences, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, prefs.ErrNotFound
}

func (m *MockPrefsRepo) Upsert(ctx context.Context, params prefs.UpsertParams) (*prefs.Preferences, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockPrefsRepo) RemoveDeviceToken(ctx context.Context, token string) error {
	return nil
}

func prefsHandler(t *testing.T, repo *MockPrefsRepo) *PrefsHandler {
	t.Helper()

	enc, err := crypto.NewEncryptor("01234567890123456789012345678901")
	if err != nil {
		t.Fatalf("create encryptor: %v", err)
	}
	return NewPrefsHandler(prefs.NewService(repo, enc))
}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestHandlePreferences_Get(t *testing.T) {
	enc, _ := crypto.NewEncryptor("01234567890123456789012345678901")
	sealed, _ := enc.Encrypt("store-key")

	repo := &MockPrefsRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*prefs.Preferences, error) {
			return &prefs.Preferences{
				UserID:       userID,
				BaseCurrency: "EUR",
				StoreAPIKey:  sealed,
			}, nil
		},
	}
	handler := prefsHandler(t, repo)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/preferences", nil), 1)
	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp PreferencesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BaseCurrency != "EUR" {
		t.Errorf("expected EUR, got %q", resp.BaseCurrency)
	}
	if !resp.HasStoreKey {
		t.Error("expected hasStoreKey true")
	}
	if strings.Contains(rr.Body.String(), "store-key") {
		t.Error("response leaked the store API key")
	}
}

func TestHandlePreferences_GetNotFound(t *testing.T) {
	handler := prefsHandler(t, &MockPrefsRepo{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/preferences", nil), 1)
	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestHandlePreferences_Save(t *testing.T) {
	var gotParams prefs.UpsertParams
	repo := &MockPrefsRepo{
		UpsertFunc: func(ctx context.Context, params prefs.UpsertParams) (*prefs.Preferences, error) {
			gotParams = params
			return &prefs.Preferences{
				UserID:       params.UserID,
				BaseCurrency: params.BaseCurrency,
				StoreAPIKey:  params.StoreAPIKey,
			}, nil
		},
	}
	handler := prefsHandler(t, repo)

	body, _ := json.Marshal(SavePreferencesRequest{
		BaseCurrency: "GBP",
		StoreAPIKey:  "secret-key",
	})
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/preferences", bytes.NewReader(body)), 3)

	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotParams.UserID != 3 {
		t.Errorf("expected user ID 3, got %d", gotParams.UserID)
	}
	if gotParams.StoreAPIKey == "secret-key" {
		t.Error("repository received the plaintext key")
	}
	if strings.Contains(rr.Body.String(), "secret-key") {
		t.Error("response echoed the store API key")
	}

	var resp PreferencesResponse
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.HasStoreKey {
		t.Error("expected hasStoreKey true after saving a key")
	}
}

func TestHandlePreferences_SaveInvalidKind(t *testing.T) {
	handler := prefsHandler(t, &MockPrefsRepo{})

	body, _ := json.Marshal(SavePreferencesRequest{IncomeAccountKind: "WALLET"})
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/preferences", bytes.NewReader(body)), 1)

	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestHandlePreferences_MethodNotAllowed(t *testing.T) {
	handler := prefsHandler(t, &MockPrefsRepo{})

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/preferences", nil), 1)
	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
