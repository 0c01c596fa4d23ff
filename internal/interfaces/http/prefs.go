package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/logger"
	"moneyvoice/internal/shared/middleware"
)

type PrefsHandler struct {
	service *prefs.Service
}

func NewPrefsHandler(service *prefs.Service) *PrefsHandler {
	return &PrefsHandler{service: service}
}

type SavePreferencesRequest struct {
	BaseCurrency       string   `json:"baseCurrency,omitempty"`
	StoreAPIKey        string   `json:"storeApiKey,omitempty"`
	IncomeAccountID    string   `json:"incomeAccountId,omitempty"`
	IncomeAccountKind  string   `json:"incomeAccountKind,omitempty"`
	ExpenseAccountID   string   `json:"expenseAccountId,omitempty"`
	ExpenseAccountKind string   `json:"expenseAccountKind,omitempty"`
	DeviceTokens       []string `json:"deviceTokens,omitempty"`
}

// PreferencesResponse never carries the store API key; hasStoreKey tells
// the client whether one is configured.
type PreferencesResponse struct {
	BaseCurrency       string   `json:"baseCurrency"`
	HasStoreKey        bool     `json:"hasStoreKey"`
	IncomeAccountID    string   `json:"incomeAccountId,omitempty"`
	IncomeAccountKind  string   `json:"incomeAccountKind,omitempty"`
	ExpenseAccountID   string   `json:"expenseAccountId,omitempty"`
	ExpenseAccountKind string   `json:"expenseAccountKind,omitempty"`
	DeviceTokens       []string `json:"deviceTokens,omitempty"`
}

// HandlePreferences serves GET and PUT for the user's preferences.
func (h *PrefsHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleSave(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PrefsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	p, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		if errors.Is(err, prefs.ErrNotFound) {
			http.Error(w, "Preferences not found", http.StatusNotFound)
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to load preferences")
		http.Error(w, "Failed to load preferences", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPreferencesResponse(p))
}

func (h *PrefsHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SavePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.SavePreferences(r.Context(), prefs.UpsertParams{
		UserID:             userID,
		BaseCurrency:       req.BaseCurrency,
		StoreAPIKey:        req.StoreAPIKey,
		IncomeAccountID:    req.IncomeAccountID,
		IncomeAccountKind:  req.IncomeAccountKind,
		ExpenseAccountID:   req.ExpenseAccountID,
		ExpenseAccountKind: req.ExpenseAccountKind,
		DeviceTokens:       req.DeviceTokens,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := toPreferencesResponse(p)
	resp.HasStoreKey = req.StoreAPIKey != "" || resp.HasStoreKey

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toPreferencesResponse(p *prefs.Preferences) PreferencesResponse {
	return PreferencesResponse{
		BaseCurrency:       p.BaseCurrency,
		HasStoreKey:        p.StoreAPIKey != "",
		IncomeAccountID:    p.IncomeAccountID,
		IncomeAccountKind:  p.IncomeAccountKind,
		ExpenseAccountID:   p.ExpenseAccountID,
		ExpenseAccountKind: p.ExpenseAccountKind,
		DeviceTokens:       p.DeviceTokens,
	}
}
