package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"moneyvoice/internal/domain/ingest"
	"moneyvoice/internal/domain/prefs"
	"moneyvoice/internal/infrastructure/crypto"
	"moneyvoice/internal/infrastructure/ledgerstore"
	"moneyvoice/internal/infrastructure/nlp"
	"moneyvoice/internal/infrastructure/postgres"
	"moneyvoice/internal/shared/config"
)

const usage = `MoneyVoice Admin CLI - Management commands for the MoneyVoice API

Usage:
  admin <command> [options]

Commands:
  ingest    Run one utterance through the pipeline and commit the result
  runs      Print a user's recent ingestion runs

Examples:
  # Commit a spoken entry on behalf of a user
  admin ingest --user-id=1 --utterance="spent 40 dollars on groceries"

  # Dry run: parse and classify but skip the ledger store
  admin ingest --user-id=1 --utterance="..." --dry-run

  # Show the last 10 runs for a user
  admin runs --user-id=1 --limit=10`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "ingest":
		runIngest(os.Args[2:])
	case "runs":
		runRuns(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)

	userID := fs.Int64("user-id", 0, "User whose preferences and ledger store to use")
	utterance := fs.String("utterance", "", "Text to parse and commit")
	dryRun := fs.Bool("dry-run", false, "Parse and classify only, do not touch the ledger store")
	timeoutStr := fs.String("timeout", "2m", "Timeout for the operation (e.g., 30s, 5m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin ingest [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userID <= 0 || *utterance == "" {
		fmt.Println("Error: --user-id and --utterance are required")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, svc, db := buildService(ctx)
	defer db.Close()

	if *dryRun {
		dryRunIngest(ctx, cfg, *utterance)
		return
	}

	startTime := time.Now()
	result, err := svc.IngestUtterance(ctx, *userID, *utterance)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	fmt.Printf("\n=== Run %s ===\n", result.RunID)
	fmt.Printf("  Committed:      %d\n", result.Committed)
	fmt.Printf("  Defaults used:  %d\n", result.DefaultsUsed)
	for _, s := range result.Suggestions {
		fmt.Printf("  Suggested card: %s for %q\n", s.Card.Name, s.Description)
	}
	for _, ev := range result.Informational {
		switch {
		case ev.Query != nil:
			fmt.Printf("  Answer:         %s\n", ev.Query.Answer)
		case ev.NeedInfo != nil:
			fmt.Printf("  Follow-up:      %s\n", ev.NeedInfo.Prompt)
		}
	}
	log.Printf("Ingestion completed in %v", time.Since(startTime))
}

// dryRunIngest parses without committing anything.
func dryRunIngest(ctx context.Context, cfg *config.Config, utterance string) {
	parser, err := nlp.NewParser(ctx, cfg.NLP.APIKey, cfg.NLP.Model)
	if err != nil {
		log.Fatalf("Failed to create parser: %v", err)
	}

	records, err := parser.ParseUtterance(ctx, utterance, "USD")
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}

	fmt.Printf("Parsed %d record(s):\n", len(records))
	for i, rec := range records {
		fmt.Printf("  [%d] %s: %v\n", i, rec.EventType, rec.Data)
	}
}

func runRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)

	userID := fs.Int64("user-id", 0, "User whose runs to list")
	limit := fs.Int("limit", 10, "Maximum number of runs to print")

	fs.Usage = func() {
		fmt.Println("Usage: admin runs [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userID <= 0 {
		fmt.Println("Error: --user-id is required")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, svc, db := buildService(ctx)
	defer db.Close()

	runs, err := svc.RecentRuns(ctx, *userID, *limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return
	}

	for _, run := range runs {
		fmt.Printf("%s  %-9s  events=%d committed=%d defaults=%d suggestions=%d",
			run.StartedAt.Format(time.RFC3339), run.Status,
			run.Events, run.Committed, run.DefaultsUsed, run.Suggestions)
		if run.Error != "" {
			fmt.Printf("  error=%q", run.Error)
		}
		fmt.Println()
	}
}

// buildService wires the pipeline without Firebase; CLI runs print their
// outcome instead of pushing notifications.
func buildService(ctx context.Context) (*config.Config, *ingest.Service, *postgres.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create encryptor: %v", err)
	}

	parser, err := nlp.NewParser(ctx, cfg.NLP.APIKey, cfg.NLP.Model)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create parser: %v", err)
	}

	prefsRepo := postgres.NewPrefsRepository(db)
	prefsService := prefs.NewService(prefsRepo, encryptor)
	runlogRepo := postgres.NewRunlogRepository(db)

	storeFor := func(apiKey string) ledgerstore.Store {
		return ledgerstore.NewClient(cfg.LedgerStore.BaseURL, apiKey)
	}

	return cfg, ingest.NewService(parser, prefsService, runlogRepo, nil, storeFor), db
}
