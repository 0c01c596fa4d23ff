// Package ingest is the application service behind the pipeline: it turns
// an utterance into classified events, commits them to the user's ledger
// store and journals the outcome.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moneyvoice/internal/domain/commit"
	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/domain/resolve"
	"moneyvoice/internal/domain/runlog"
	"moneyvoice/internal/infrastructure/ledgerstore"
	"moneyvoice/internal/logger"
)

// UtteranceParser extracts raw event records from free text.
type UtteranceParser interface {
	ParseUtterance(ctx context.Context, utterance, baseCurrency string) ([]event.RawRecord, error)
}

// Notifier pushes a finished run to the user's devices. Implementations
// must tolerate partial delivery; the pipeline only logs their errors.
type Notifier interface {
	RunFinished(ctx context.Context, tokens []string, run *runlog.Run) error
}

// StoreFactory builds a ledger store client bound to one user's API key.
type StoreFactory func(apiKey string) ledgerstore.Store

// Service contains the business logic for ingestion runs. The run journal
// and notifier are optional; a nil value disables that concern.
type Service struct {
	parser   UtteranceParser
	prefs    *prefs.Service
	runs     runlog.Repository
	notifier Notifier
	storeFor StoreFactory
}

// NewService creates a new ingestion service
func NewService(parser UtteranceParser, prefsSvc *prefs.Service, runs runlog.Repository, notifier Notifier, storeFor StoreFactory) *Service {
	return &Service{
		parser:   parser,
		prefs:    prefsSvc,
		runs:     runs,
		notifier: notifier,
		storeFor: storeFor,
	}
}

// IngestUtterance parses an utterance and commits the extracted events.
func (s *Service) IngestUtterance(ctx context.Context, userID int64, utterance string) (*commit.RunResult, error) {
	started := time.Now()

	p, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	records, err := s.parser.ParseUtterance(ctx, utterance, p.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to parse utterance: %w", err)
	}

	return s.commitRecords(ctx, p, utterance, records, started)
}

// IngestRecords commits records a client already parsed on-device.
func (s *Service) IngestRecords(ctx context.Context, userID int64, records []event.RawRecord) (*commit.RunResult, error) {
	started := time.Now()

	p, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	return s.commitRecords(ctx, p, "", records, started)
}

// RecentRuns returns the user's latest journaled runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListByUserID(ctx, userID, limit)
}

func (s *Service) commitRecords(ctx context.Context, p *prefs.Preferences, utterance string, records []event.RawRecord, started time.Time) (*commit.RunResult, error) {
	classifier := event.NewClassifier(p.BaseCurrency)
	events := classifier.ClassifyAll(ctx, records)
	store := s.storeFor(p.StoreAPIKey)

	snap, err := s.loadSnapshot(ctx, store, p, events)
	if err != nil {
		s.finishRun(ctx, p, utterance, len(events), nil, err, started)
		return nil, err
	}

	result, err := commit.NewOrchestrator(store).CommitBatch(ctx, events, snap)
	s.finishRun(ctx, p, utterance, len(events), result, err, started)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadSnapshot fetches the entity state resolution needs: the account map
// always, cards only when a transaction names one, and the holdings of
// every account targeted by a trade. A batch with nothing to commit loads
// nothing.
func (s *Service) loadSnapshot(ctx context.Context, store ledgerstore.Store, p *prefs.Preferences, events []event.FinancialEvent) (commit.Snapshot, error) {
	snap := commit.Snapshot{Defaults: p.ResolutionDefaults()}

	committable := false
	needCards := false
	var trades []*event.HoldingUpdate
	for _, ev := range events {
		if !ev.Committable() {
			continue
		}
		committable = true
		switch ev.Kind {
		case event.KindTransaction:
			if ev.Transaction.CardIdentifier != "" {
				needCards = true
			}
		case event.KindHoldingUpdate:
			trades = append(trades, ev.Holding)
		}
	}
	if !committable {
		return snap, nil
	}

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to load accounts: %w", err)
	}
	named := make([]resolve.Named, len(accounts))
	for i, a := range accounts {
		named[i] = resolve.Named{ID: a.ID, Name: a.Name}
	}
	snap.Accounts = resolve.BuildAccountMap(named)

	if needCards {
		snap.Cards, err = store.ListCards(ctx)
		if err != nil {
			return snap, fmt.Errorf("failed to load credit cards: %w", err)
		}
	}

	if len(trades) > 0 {
		snap.Holdings = make(map[string][]ledgerstore.Holding)
		for _, t := range trades {
			id := snap.Accounts[t.AccountName]
			if _, ok := snap.Holdings[id]; ok {
				continue
			}
			holdings, err := store.ListHoldings(ctx, id)
			if err != nil {
				return snap, fmt.Errorf("failed to load holdings: %w", err)
			}
			snap.Holdings[id] = holdings
		}
	}

	return snap, nil
}

// finishRun journals the run and pushes the outcome to the user's devices.
// Both are best-effort; failures are logged, never surfaced.
func (s *Service) finishRun(ctx context.Context, p *prefs.Preferences, utterance string, eventCount int, result *commit.RunResult, runErr error, started time.Time) {
	log := logger.FromContext(ctx)

	params := runlog.CreateParams{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		Utterance:  utterance,
		Events:     eventCount,
		Status:     runlog.StatusCompleted,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if result != nil {
		params.ID = result.RunID
		params.Committed = result.Committed
		params.DefaultsUsed = result.DefaultsUsed
		params.Suggestions = len(result.Suggestions)
	}
	if runErr != nil {
		params.Status = runlog.StatusFailed
		params.Error = runErr.Error()
	}

	run := &runlog.Run{
		ID: params.ID, UserID: params.UserID, Utterance: params.Utterance,
		Events: params.Events, Committed: params.Committed,
		DefaultsUsed: params.DefaultsUsed, Suggestions: params.Suggestions,
		Status: params.Status, Error: params.Error,
		StartedAt: params.StartedAt, FinishedAt: params.FinishedAt,
	}
	if s.runs != nil {
		created, err := s.runs.Create(ctx, params)
		if err != nil {
			log.Warn().Err(err).Str("run_id", params.ID).Msg("failed to journal run")
		} else {
			run = created
		}
	}

	if s.notifier != nil && len(p.DeviceTokens) > 0 {
		if err := s.notifier.RunFinished(ctx, p.DeviceTokens, run); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to push run notification")
		}
	}
}
