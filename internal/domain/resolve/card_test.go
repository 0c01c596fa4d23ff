package resolve

import (
	"context"
	"errors"
	"testing"

	"moneyvoice/internal/infrastructure/ledgerstore"
)

type mockRecommender struct {
	GetRecommendedCreditCardFunc func(ctx context.Context, institution string) (*ledgerstore.CreditCard, error)
}

func (m *mockRecommender) GetRecommendedCreditCard(ctx context.Context, institution string) (*ledgerstore.CreditCard, error) {
	if m.GetRecommendedCreditCardFunc != nil {
		return m.GetRecommendedCreditCardFunc(ctx, institution)
	}
	return nil, nil
}

func TestMatchCard_ExactIdentifier(t *testing.T) {
	cards := []ledgerstore.CreditCard{
		{ID: "card-1", Identifier: "1234", Name: "ICBC Visa"},
		{ID: "card-2", Identifier: "5678", Name: "CMB Master"},
	}

	got, err := MatchCard(context.Background(), "5678", "", cards, nil)
	if err != nil {
		t.Fatalf("MatchCard() error: %v", err)
	}
	if got.Kind != MatchExact || got.Card == nil || got.Card.ID != "card-2" {
		t.Errorf("MatchCard() = %+v, want exact card-2", got)
	}
}

func TestMatchCard_IdentifierMissIsNoMatch(t *testing.T) {
	// An unmatched identifier must not fall back to the recommender: the
	// caller has to let the user pick manually.
	cards := []ledgerstore.CreditCard{{ID: "card-1", Identifier: "1234"}}
	rec := &mockRecommender{
		GetRecommendedCreditCardFunc: func(ctx context.Context, institution string) (*ledgerstore.CreditCard, error) {
			t.Error("recommender must not be consulted when an identifier is present")
			return nil, nil
		},
	}

	got, err := MatchCard(context.Background(), "9999", "ICBC card", cards, rec)
	if err != nil {
		t.Fatalf("MatchCard() error: %v", err)
	}
	if got.Kind != MatchNone {
		t.Errorf("Kind = %v, want MatchNone", got.Kind)
	}
}

func TestMatchCard_RecommendationIsFlagged(t *testing.T) {
	rec := &mockRecommender{
		GetRecommendedCreditCardFunc: func(ctx context.Context, institution string) (*ledgerstore.CreditCard, error) {
			if institution != "ICBC" {
				t.Errorf("institution = %q, want ICBC (suffix stripped)", institution)
			}
			return &ledgerstore.CreditCard{ID: "card-1", Institution: "ICBC"}, nil
		},
	}

	got, err := MatchCard(context.Background(), "", "ICBC card", nil, rec)
	if err != nil {
		t.Fatalf("MatchCard() error: %v", err)
	}
	if got.Kind != MatchRecommended {
		t.Errorf("Kind = %v, want MatchRecommended", got.Kind)
	}
}

func TestMatchCard_NoHintNoBinding(t *testing.T) {
	got, err := MatchCard(context.Background(), "", "", nil, &mockRecommender{})
	if err != nil {
		t.Fatalf("MatchCard() error: %v", err)
	}
	if got.Kind != MatchNone {
		t.Errorf("Kind = %v, want MatchNone", got.Kind)
	}
}

func TestMatchCard_RecommenderError(t *testing.T) {
	wantErr := errors.New("boom")
	rec := &mockRecommender{
		GetRecommendedCreditCardFunc: func(ctx context.Context, institution string) (*ledgerstore.CreditCard, error) {
			return nil, wantErr
		},
	}

	_, err := MatchCard(context.Background(), "", "ICBC card", nil, rec)
	if !errors.Is(err, wantErr) {
		t.Errorf("MatchCard() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestInstitutionFromHint(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"ICBC card", "ICBC"},
		{"ICBC credit card", "ICBC"},
		{"CMB savings", "CMB"},
		{"HSBC account", "HSBC"},
		{"Plain", "Plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := InstitutionFromHint(tt.hint); got != tt.want {
			t.Errorf("InstitutionFromHint(%q) = %q, want %q", tt.hint, got, tt.want)
		}
	}
}
