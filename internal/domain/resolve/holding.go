package resolve

import (
	"errors"
	"strings"

	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/infrastructure/ledgerstore"
)

// ErrNoHoldingToSell is returned when a sell event matches no existing
// holding. It is detected before any write is issued.
var ErrNoHoldingToSell = errors.New("no existing holding to sell")

// HoldingDecision is the outcome of reconciling a trade event against the
// account's existing holdings: either trade against Existing, or open a new
// position (CreateNew, buys only).
type HoldingDecision struct {
	Existing  *ledgerstore.Holding
	CreateNew bool
}

// ReconcileHolding matches a trade event to a holding. Exact
// case-insensitive ticker equality wins; otherwise a bidirectional
// case-insensitive substring match on the name. A buy with no match opens a
// new position; a sell with no match fails.
func ReconcileHolding(ev *event.HoldingUpdate, holdings []ledgerstore.Holding) (HoldingDecision, error) {
	if h := findHolding(ev, holdings); h != nil {
		return HoldingDecision{Existing: h}, nil
	}
	if ev.Action == event.TradeSell {
		return HoldingDecision{}, ErrNoHoldingToSell
	}
	return HoldingDecision{CreateNew: true}, nil
}

func findHolding(ev *event.HoldingUpdate, holdings []ledgerstore.Holding) *ledgerstore.Holding {
	if ev.Ticker != "" {
		for i := range holdings {
			if strings.EqualFold(holdings[i].Ticker, ev.Ticker) {
				return &holdings[i]
			}
		}
	}
	if ev.Name == "" {
		return nil
	}
	name := strings.ToLower(ev.Name)
	for i := range holdings {
		candidate := strings.ToLower(holdings[i].Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
			return &holdings[i]
		}
	}
	return nil
}
