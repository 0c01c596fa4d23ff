// Package resolve maps the soft references carried by classified events
// (account names, card identifiers, holding tickers) to concrete store
// entities. Everything here is pure: the orchestrator supplies the entity
// snapshots and consumes the decisions.
package resolve

import "moneyvoice/internal/domain/event"

// AccountKind distinguishes a plain account default from a credit card one.
// Credit card defaults are handled by the card matcher, never by the
// account resolver.
type AccountKind string

const (
	KindAccount    AccountKind = "ACCOUNT"
	KindCreditCard AccountKind = "CREDIT_CARD"
)

// Defaults are the user's configured fallback accounts per direction.
type Defaults struct {
	IncomeAccountID    string
	IncomeAccountKind  AccountKind
	ExpenseAccountID   string
	ExpenseAccountKind AccountKind
}

// AccountRef is a resolved account reference. DefaultUsed marks tier-2
// resolutions so callers can surface the id as an editable pre-fill rather
// than a final decision.
type AccountRef struct {
	ID          string
	DefaultUsed bool
}

// ResolveAccount resolves an account name hint with tiered fallback:
// exact match in the name→id map, then the user's default account for the
// direction (plain accounts only), then nil. A nil result is a valid
// terminal state, not an error: the event commits with an unassigned
// account reference.
func ResolveAccount(nameHint string, dir event.Direction, accounts map[string]string, defaults Defaults) *AccountRef {
	if nameHint != "" {
		if id, ok := accounts[nameHint]; ok {
			return &AccountRef{ID: id}
		}
	}

	id, kind := defaults.ExpenseAccountID, defaults.ExpenseAccountKind
	if dir == event.DirectionIncome {
		id, kind = defaults.IncomeAccountID, defaults.IncomeAccountKind
	}
	if id != "" && kind == KindAccount {
		return &AccountRef{ID: id, DefaultUsed: true}
	}

	return nil
}

// BuildAccountMap rebuilds the name→id map from an account snapshot. The
// map is replaced wholesale on refresh, never merged, so stale entries
// cannot survive a refresh.
func BuildAccountMap(accounts []Named) map[string]string {
	m := make(map[string]string, len(accounts))
	for _, a := range accounts {
		m[a.Name] = a.ID
	}
	return m
}

// Named is the minimal account shape the map builder needs.
type Named struct {
	ID   string
	Name string
}
