package resolve

import (
	"context"
	"fmt"
	"strings"

	"moneyvoice/internal/infrastructure/ledgerstore"
)

// CardMatchKind tags the outcome of a card lookup.
type CardMatchKind int

const (
	// MatchNone: no card binding; the event proceeds without one.
	MatchNone CardMatchKind = iota
	// MatchExact: identifier matched exactly; safe to commit against.
	MatchExact
	// MatchRecommended: a best-guess by institution name. Never committed
	// automatically; the caller must surface it for confirmation.
	MatchRecommended
)

// CardMatch is the result of MatchCard.
type CardMatch struct {
	Kind CardMatchKind
	Card *ledgerstore.CreditCard
}

// CardRecommender is the store capability that returns at most one best
// card match for an institution name.
type CardRecommender interface {
	GetRecommendedCreditCard(ctx context.Context, institution string) (*ledgerstore.CreditCard, error)
}

// Suffixes stripped from an account-name hint to derive an institution name
// ("ICBC savings card" → "ICBC").
var institutionSuffixes = []string{" credit card", " card", " savings", " account"}

// MatchCard resolves a card reference. An explicit identifier is matched
// exactly or not at all — a miss is MatchNone and the caller must let the
// user pick manually rather than fall back silently. Without an identifier,
// an institution name derived from the account hint is sent to the
// recommender; its answer comes back flagged MatchRecommended.
func MatchCard(ctx context.Context, identifier, accountHint string, cards []ledgerstore.CreditCard, rec CardRecommender) (CardMatch, error) {
	if identifier != "" {
		for i := range cards {
			if cards[i].Identifier == identifier {
				return CardMatch{Kind: MatchExact, Card: &cards[i]}, nil
			}
		}
		return CardMatch{Kind: MatchNone}, nil
	}

	institution := InstitutionFromHint(accountHint)
	if institution == "" || rec == nil {
		return CardMatch{Kind: MatchNone}, nil
	}

	card, err := rec.GetRecommendedCreditCard(ctx, institution)
	if err != nil {
		return CardMatch{}, fmt.Errorf("failed to fetch card recommendation: %w", err)
	}
	if card == nil {
		return CardMatch{Kind: MatchNone}, nil
	}
	return CardMatch{Kind: MatchRecommended, Card: card}, nil
}

// InstitutionFromHint strips known suffixes from an account-name hint to
// recover the institution name. Returns "" when nothing remains.
func InstitutionFromHint(hint string) string {
	s := strings.TrimSpace(hint)
	lower := strings.ToLower(s)
	for _, suffix := range institutionSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}
