// Package commit schedules classified events into dependency-ordered phases
// and fans their store calls out concurrently.
package commit

import "moneyvoice/internal/domain/event"

// Plan is the result of partitioning a classified batch. Phase 1 holds
// entity-creating events with no dependency on other events in the batch;
// Phase 2 holds transactions, which may reference entities Phase 1 creates.
// Informational events are returned to the caller for display and never
// committed; null statements are dropped outright.
type Plan struct {
	Phase1        []event.FinancialEvent
	Phase2        []event.FinancialEvent
	Informational []event.FinancialEvent
}

// PlanPhases partitions a classified batch. Pure; order within each phase
// follows input order but carries no scheduling meaning.
func PlanPhases(events []event.FinancialEvent) Plan {
	var plan Plan
	for _, ev := range events {
		switch ev.Kind {
		case event.KindAssetUpdate, event.KindCreditCardUpdate, event.KindBudget, event.KindHoldingUpdate:
			plan.Phase1 = append(plan.Phase1, ev)
		case event.KindTransaction:
			plan.Phase2 = append(plan.Phase2, ev)
		case event.KindQueryResponse, event.KindNeedMoreInfo:
			plan.Informational = append(plan.Informational, ev)
		case event.KindNullStatement:
			// dropped before scheduling
		}
	}
	return plan
}
