package main

import (
	"context"

	"moneyvoice/internal/domain/ingest"
	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/infrastructure/crypto"
	"moneyvoice/internal/infrastructure/firebase"
	"moneyvoice/internal/infrastructure/ledgerstore"
	"moneyvoice/internal/infrastructure/nlp"
	"moneyvoice/internal/infrastructure/postgres"
	httphandlers "moneyvoice/internal/interfaces/http"
	"moneyvoice/internal/logger"
	"moneyvoice/internal/shared/config"
	"moneyvoice/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	IngestHandler *httphandlers.IngestHandler
	PrefsHandler  *httphandlers.PrefsHandler

	// Services (for the background worker pool)
	IngestService *ingest.Service
}

// NewDependencies initializes all application dependencies. The enqueue
// func is wired in later, once the worker pool exists.
func NewDependencies(ctx context.Context, cfg *config.Config, enqueue *httphandlers.EnqueueFunc) (*Dependencies, error) {
	log := logger.New()

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")

	// Initialize encryptor for stored ledger store API keys
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Initialize repositories and domain services
	prefsRepo := postgres.NewPrefsRepository(db)
	prefsService := prefs.NewService(prefsRepo, encryptor)
	runlogRepo := postgres.NewRunlogRepository(db)

	// Utterance parser
	parser, err := nlp.NewParser(ctx, cfg.NLP.APIKey, cfg.NLP.Model)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Push notifications are optional; without Firebase credentials the
	// pipeline still runs, results just stay in the run journal.
	var notifier ingest.Notifier
	if cfg.Firebase.CredentialsFile != "" {
		fcmClient, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, prefsRepo.RemoveDeviceToken)
		if err != nil {
			log.Warn().Err(err).Msg("firebase unavailable, push notifications disabled")
		} else {
			msgs, err := messages.Load(cfg.Firebase.MessagesFile)
			if err != nil {
				log.Warn().Err(err).Msg("notification messages unavailable, push notifications disabled")
			} else {
				notifier = firebase.NewRunNotifier(fcmClient, msgs)
			}
		}
	}

	storeFor := func(apiKey string) ledgerstore.Store {
		return ledgerstore.NewClient(cfg.LedgerStore.BaseURL, apiKey)
	}

	ingestService := ingest.NewService(parser, prefsService, runlogRepo, notifier, storeFor)

	var enqueueFn httphandlers.EnqueueFunc
	if enqueue != nil {
		enqueueFn = func(userID int64, utterance string) error {
			return (*enqueue)(userID, utterance)
		}
	}

	return &Dependencies{
		DB:            db,
		IngestHandler: httphandlers.NewIngestHandler(ingestService, enqueueFn),
		PrefsHandler:  httphandlers.NewPrefsHandler(prefsService),
		IngestService: ingestService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
