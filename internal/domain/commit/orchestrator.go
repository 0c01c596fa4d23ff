package commit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/domain/resolve"
	"moneyvoice/internal/infrastructure/ledgerstore"
	"moneyvoice/internal/logger"
)

var (
	commitTracer = otel.Tracer("moneyvoice.commit")
	commitMeter  = otel.Meter("moneyvoice.commit")

	eventsCommitted, _ = commitMeter.Int64Counter("commit_events_total",
		metric.WithDescription("Events committed to the ledger store"))
	phaseFailures, _ = commitMeter.Int64Counter("commit_phase_failures_total",
		metric.WithDescription("Commit phases that ended with at least one failed event"))
)

// PhaseError reports a failed commit phase. Err is the first event error
// observed; Failed counts every event that errored after the whole phase
// settled. Successfully committed siblings are not rolled back.
type PhaseError struct {
	Phase  string
	Failed int
	Total  int
	Err    error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("commit %s: %d of %d events failed: %v", e.Phase, e.Failed, e.Total, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Snapshot is the entity state the orchestrator resolves against. The
// caller loads it from the store before committing; the orchestrator only
// refreshes the account map between phases.
type Snapshot struct {
	Accounts map[string]string // name → id
	Cards    []ledgerstore.CreditCard
	Holdings map[string][]ledgerstore.Holding // account id → positions, "" for unassigned
	Defaults resolve.Defaults
}

// CardSuggestion is a recommended card binding that was NOT applied. The
// transaction commits without it; the caller surfaces the suggestion for
// the user to confirm.
type CardSuggestion struct {
	Description string
	Card        ledgerstore.CreditCard
}

// RunResult summarizes one commit run.
type RunResult struct {
	RunID         string
	Committed     int
	DefaultsUsed  int
	Informational []event.FinancialEvent
	Suggestions   []CardSuggestion
}

// Orchestrator commits classified events to the ledger store in two
// dependency-ordered phases, fanning out concurrently within each phase.
type Orchestrator struct {
	store ledgerstore.Store
}

func NewOrchestrator(store ledgerstore.Store) *Orchestrator {
	return &Orchestrator{store: store}
}

// runState is the mutable state shared by one run's goroutines. The
// accounts map is replaced only between phases, so event goroutines read
// it without locking; the mutex guards the counters and suggestion list.
type runState struct {
	mu           sync.Mutex
	accounts     map[string]string
	defaults     resolve.Defaults
	cards        []ledgerstore.CreditCard
	holdings     map[string][]ledgerstore.Holding
	defaultsUsed int
	suggestions  []CardSuggestion
}

func (st *runState) noteDefaultUsed() {
	st.mu.Lock()
	st.defaultsUsed++
	st.mu.Unlock()
}

func (st *runState) addSuggestion(s CardSuggestion) {
	st.mu.Lock()
	st.suggestions = append(st.suggestions, s)
	st.mu.Unlock()
}

// CommitBatch plans and commits a classified batch. Phase 1 (assets,
// cards, budgets, holdings) and Phase 2 (transactions) each settle every
// event before the phase's outcome is decided; a phase with failures stops
// the run with a *PhaseError and nothing is rolled back. Between a
// non-empty Phase 1 and a non-empty Phase 2 the account map is refreshed
// so transactions can land on accounts Phase 1 just created; a refresh
// failure downgrades to a warning and the stale map is used. An empty
// batch returns without touching the store.
func (o *Orchestrator) CommitBatch(ctx context.Context, events []event.FinancialEvent, snap Snapshot) (*RunResult, error) {
	log := logger.FromContext(ctx)
	runID := uuid.NewString()

	ctx, span := commitTracer.Start(ctx, "commit.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("batch.size", len(events)),
	))
	defer span.End()

	plan := PlanPhases(events)
	result := &RunResult{RunID: runID, Informational: plan.Informational}
	if len(plan.Phase1) == 0 && len(plan.Phase2) == 0 {
		return result, nil
	}

	st := &runState{
		accounts: snap.Accounts,
		defaults: snap.Defaults,
		cards:    snap.Cards,
		holdings: snap.Holdings,
	}

	if len(plan.Phase1) > 0 {
		if err := o.commitPhase(ctx, "phase 1", plan.Phase1, st); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if len(plan.Phase2) > 0 {
			o.refreshAccounts(ctx, st)
		}
	}

	if len(plan.Phase2) > 0 {
		if err := o.commitPhase(ctx, "phase 2", plan.Phase2, st); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	result.Committed = len(plan.Phase1) + len(plan.Phase2)
	result.DefaultsUsed = st.defaultsUsed
	result.Suggestions = st.suggestions
	eventsCommitted.Add(ctx, int64(result.Committed))

	log.Info().
		Str("run_id", runID).
		Int("committed", result.Committed).
		Int("defaults_used", result.DefaultsUsed).
		Int("suggestions", len(result.Suggestions)).
		Msg("commit run finished")
	return result, nil
}

// refreshAccounts replaces the name→id map wholesale from a fresh account
// list. On failure the stale map stays in place and the run continues.
func (o *Orchestrator) refreshAccounts(ctx context.Context, st *runState) {
	accounts, err := o.store.ListAccounts(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Msg("account map refresh failed, continuing with stale map")
		return
	}
	named := make([]resolve.Named, len(accounts))
	for i, a := range accounts {
		named[i] = resolve.Named{ID: a.ID, Name: a.Name}
	}
	st.accounts = resolve.BuildAccountMap(named)
}

func (o *Orchestrator) commitPhase(ctx context.Context, phase string, events []event.FinancialEvent, st *runState) error {
	ctx, span := commitTracer.Start(ctx, "commit."+strings.ReplaceAll(phase, " ", ""),
		trace.WithAttributes(attribute.Int("phase.events", len(events))))
	defer span.End()

	start := time.Now()
	errs := make([]error, len(events))
	var wg sync.WaitGroup
	for i := range events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = o.commitOne(ctx, events[i], st)
		}(i)
	}
	wg.Wait()

	failed := 0
	var first error
	for _, err := range errs {
		if err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}

	log := logger.FromContext(ctx)
	if first != nil {
		perr := &PhaseError{Phase: phase, Failed: failed, Total: len(events), Err: first}
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		phaseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
		log.Error().Err(perr).Str("phase", phase).Dur("took", time.Since(start)).
			Msg("commit phase failed")
		return perr
	}
	log.Debug().Str("phase", phase).Int("events", len(events)).
		Dur("took", time.Since(start)).Msg("commit phase done")
	return nil
}

func (o *Orchestrator) commitOne(ctx context.Context, ev event.FinancialEvent, st *runState) error {
	switch ev.Kind {
	case event.KindAssetUpdate:
		return o.commitAsset(ctx, ev.Asset)
	case event.KindCreditCardUpdate:
		return o.commitCard(ctx, ev.CreditCard)
	case event.KindBudget:
		return o.commitBudget(ctx, ev.Budget)
	case event.KindHoldingUpdate:
		return o.commitHolding(ctx, ev.Holding, st)
	case event.KindTransaction:
		return o.commitTransaction(ctx, ev.Transaction, st)
	default:
		return nil
	}
}

func (o *Orchestrator) commitAsset(ctx context.Context, a *event.AssetUpdate) error {
	spec := ledgerstore.AssetSpec{
		Name:        a.Name,
		Type:        string(a.AssetType),
		Value:       a.Value,
		Currency:    a.Currency,
		Institution: a.Institution,
		Quantity:    a.Quantity,
		APY:         a.APY,
		CostBasis:   a.CostBasis,
	}
	if a.Loan != nil {
		spec.Loan = &ledgerstore.LoanSpec{
			TermMonths:     a.Loan.TermMonths,
			Rate:           a.Loan.Rate,
			MonthlyPayment: a.Loan.MonthlyPayment,
			RepaymentDay:   a.Loan.RepaymentDay,
			AutoRepay:      a.Loan.AutoRepay,
			SourceAccount:  a.Loan.SourceAccount,
		}
	}
	if _, err := o.store.CreateAsset(ctx, spec); err != nil {
		return fmt.Errorf("asset %q: %w", a.Name, err)
	}
	return nil
}

func (o *Orchestrator) commitCard(ctx context.Context, c *event.CreditCardUpdate) error {
	spec := ledgerstore.CreditCardSpec{
		Identifier:   c.CardIdentifier,
		Name:         c.Name,
		Balance:      c.Balance,
		CreditLimit:  c.CreditLimit,
		RepaymentDay: c.RepaymentDay,
	}
	if c.AutoRepay != nil {
		spec.AutoRepay = c.AutoRepay.Enabled
		spec.SourceAccount = c.AutoRepay.SourceAccount
	}
	if _, err := o.store.CreateOrUpdateCreditCard(ctx, spec); err != nil {
		return fmt.Errorf("credit card %q: %w", c.Name, err)
	}
	return nil
}

func (o *Orchestrator) commitBudget(ctx context.Context, b *event.Budget) error {
	action := b.Action
	if action == "" {
		action = event.BudgetCreate
	}
	spec := ledgerstore.BudgetSpec{
		Action:       string(action),
		Name:         b.Name,
		Category:     b.Category,
		TargetAmount: b.TargetAmount,
		Currency:     b.Currency,
		TargetDate:   b.TargetDate,
		Priority:     b.Priority,
		Recurring:    b.Recurring,
	}
	if _, err := o.store.CreateBudget(ctx, spec); err != nil {
		return fmt.Errorf("budget %q: %w", b.Name, err)
	}
	return nil
}

// commitHolding reconciles a trade against the snapshot before any write.
// A sell that matches nothing fails here without reaching the store.
func (o *Orchestrator) commitHolding(ctx context.Context, h *event.HoldingUpdate, st *runState) error {
	accountID := ""
	if h.AccountName != "" {
		accountID = st.accounts[h.AccountName]
	}

	decision, err := resolve.ReconcileHolding(h, st.holdings[accountID])
	if err != nil {
		return fmt.Errorf("holding %q: %w", holdingLabel(h), err)
	}

	trade := ledgerstore.TradeSpec{
		Quantity:  h.Quantity,
		UnitPrice: h.UnitPrice,
		Fee:       h.Fee,
		Date:      h.Date,
		Note:      h.Note,
	}

	switch {
	case decision.CreateNew:
		_, err = o.store.BuyNewHolding(ctx, ledgerstore.NewHoldingSpec{
			AccountID: accountID,
			Name:      h.Name,
			Ticker:    h.Ticker,
			Type:      string(h.HoldingType),
			Currency:  h.Currency,
			Market:    h.Market,
			Trade:     trade,
		})
	case h.Action == event.TradeSell:
		_, err = o.store.Sell(ctx, decision.Existing.ID, trade)
	default:
		_, err = o.store.Buy(ctx, decision.Existing.ID, trade)
	}
	if err != nil {
		return fmt.Errorf("holding %q: %w", holdingLabel(h), err)
	}
	return nil
}

func holdingLabel(h *event.HoldingUpdate) string {
	if h.Ticker != "" {
		return h.Ticker
	}
	return h.Name
}

func (o *Orchestrator) commitTransaction(ctx context.Context, tx *event.Transaction, st *runState) error {
	if tx.CardIdentifier != "" || hintMentionsCard(tx.AccountName) {
		match, err := resolve.MatchCard(ctx, tx.CardIdentifier, tx.AccountName, st.cards, o.store)
		if err != nil {
			return fmt.Errorf("transaction %q: %w", tx.Description, err)
		}
		switch match.Kind {
		case resolve.MatchExact:
			_, err := o.store.CreateCreditCardTransaction(ctx, ledgerstore.CardTransactionSpec{
				CardID:      match.Card.ID,
				Amount:      tx.Amount,
				Direction:   string(tx.Direction),
				Category:    tx.Category,
				Description: tx.Description,
				Date:        tx.Date,
			})
			if err != nil {
				return fmt.Errorf("transaction %q: %w", tx.Description, err)
			}
			return nil
		case resolve.MatchRecommended:
			// Recommended bindings are suggestions only. The record commits
			// without a card; the user confirms or rejects later.
			st.addSuggestion(CardSuggestion{Description: tx.Description, Card: *match.Card})
		default:
			if tx.CardIdentifier != "" {
				log := logger.FromContext(ctx)
				log.Warn().
					Str("identifier", tx.CardIdentifier).
					Msg("card identifier matched nothing, committing without a card")
			}
		}
	}

	ref := resolve.ResolveAccount(tx.AccountName, tx.Direction, st.accounts, st.defaults)
	var accountID *string
	if ref != nil {
		accountID = &ref.ID
		if ref.DefaultUsed {
			st.noteDefaultUsed()
		}
	}

	_, err := o.store.CreateTransaction(ctx, ledgerstore.TransactionSpec{
		AccountID:   accountID,
		Amount:      tx.Amount,
		Direction:   string(tx.Direction),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
	})
	if err != nil {
		return fmt.Errorf("transaction %q: %w", tx.Description, err)
	}
	return nil
}

func hintMentionsCard(hint string) bool {
	return strings.Contains(strings.ToLower(hint), "card")
}
