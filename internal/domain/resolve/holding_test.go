package resolve

import (
	"errors"
	"testing"

	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/infrastructure/ledgerstore"
)

func TestReconcileHolding(t *testing.T) {
	holdings := []ledgerstore.Holding{
		{ID: "h-1", Ticker: "AAPL", Name: "Apple Inc"},
		{ID: "h-2", Ticker: "VWRL", Name: "Vanguard FTSE All-World"},
	}

	tests := []struct {
		name    string
		ev      *event.HoldingUpdate
		wantID  string
		wantNew bool
		wantErr error
	}{
		{
			name:   "exact ticker match, case-insensitive",
			ev:     &event.HoldingUpdate{Ticker: "aapl", Action: event.TradeBuy},
			wantID: "h-1",
		},
		{
			name:   "name substring match",
			ev:     &event.HoldingUpdate{Name: "Vanguard", Action: event.TradeSell},
			wantID: "h-2",
		},
		{
			name:   "reverse substring match",
			ev:     &event.HoldingUpdate{Name: "Apple Inc common stock", Action: event.TradeBuy},
			wantID: "h-1",
		},
		{
			name:    "buy with no match opens a new position",
			ev:      &event.HoldingUpdate{Ticker: "TSLA", Name: "Tesla", Action: event.TradeBuy},
			wantNew: true,
		},
		{
			name:    "sell with no match fails",
			ev:      &event.HoldingUpdate{Ticker: "TSLA", Name: "Tesla", Action: event.TradeSell},
			wantErr: ErrNoHoldingToSell,
		},
		{
			name:   "ticker beats name",
			ev:     &event.HoldingUpdate{Ticker: "VWRL", Name: "Apple", Action: event.TradeBuy},
			wantID: "h-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReconcileHolding(tt.ev, holdings)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReconcileHolding() error: %v", err)
			}
			if got.CreateNew != tt.wantNew {
				t.Errorf("CreateNew = %v, want %v", got.CreateNew, tt.wantNew)
			}
			if tt.wantID != "" && (got.Existing == nil || got.Existing.ID != tt.wantID) {
				t.Errorf("Existing = %+v, want id %s", got.Existing, tt.wantID)
			}
		})
	}
}

func TestReconcileHolding_EmptyPortfolioSell(t *testing.T) {
	ev := &event.HoldingUpdate{Ticker: "AAPL", Action: event.TradeSell}
	_, err := ReconcileHolding(ev, nil)
	if !errors.Is(err, ErrNoHoldingToSell) {
		t.Errorf("error = %v, want ErrNoHoldingToSell", err)
	}
}
