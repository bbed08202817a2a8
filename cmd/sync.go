package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"doc-sync/core/config"
	"doc-sync/core/logger"
	"doc-sync/core/storage"
	"doc-sync/core/timeutil"
	"doc-sync/feature/docs"
	"doc-sync/feature/rfced"

	"doc-sync/core/database"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync commands
	queueFile     string
	indexFile     string
	errataFile    string
	skipOlderThan string
)

// syncCmd is the parent command for all feed synchronization operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize documents with the RFC Editor feeds",
	Long: `Synchronize the document tracking database with the RFC Editor.

The queue feed drives editorial-queue states and tags, the index feed
drives published RFC metadata, relationships and errata tags.`,
}

// syncQueueCmd reconciles the RFC Editor queue feed.
var syncQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Reconcile the RFC Editor queue feed",
	Long: `Reconcile the RFC Editor queue feed against the document database.

Examples:
  # Reconcile a downloaded queue2.xml
  doc-sync sync queue --file queue2.xml`,
	RunE: runQueueSync,
}

// syncIndexCmd reconciles the RFC Editor index feed.
var syncIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Reconcile the RFC Editor index feed",
	Long: `Reconcile the RFC Editor index feed against the document database.

Examples:
  # Full index pass
  doc-sync sync index --file rfc-index.xml --errata errata.json

  # Skip entries published before a date (speed optimization)
  doc-sync sync index --file rfc-index.xml --errata errata.json --skip-older-than 2024-01-01`,
	RunE: runIndexSync,
}

func init() {
	syncQueueCmd.Flags().StringVar(&queueFile, "file", "", "Path to the queue XML feed (required)")
	_ = syncQueueCmd.MarkFlagRequired("file")

	syncIndexCmd.Flags().StringVar(&indexFile, "file", "", "Path to the index XML feed (required)")
	syncIndexCmd.Flags().StringVar(&errataFile, "errata", "", "Path to the errata JSON dataset")
	syncIndexCmd.Flags().StringVar(&skipOlderThan, "skip-older-than", "", "Skip entries published before this date (YYYY-MM-DD)")
	_ = syncIndexCmd.MarkFlagRequired("file")

	syncCmd.AddCommand(syncQueueCmd)
	syncCmd.AddCommand(syncIndexCmd)
	RootCmd.AddCommand(syncCmd)
}

func runQueueSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, store, err := setupSync()
	if err != nil {
		return err
	}

	f, err := os.Open(queueFile)
	if err != nil {
		return fmt.Errorf("failed to open queue feed: %w", err)
	}
	defer f.Close()

	entries, parseWarnings, err := rfced.ParseQueue(f, l)
	if err != nil {
		return err
	}
	l.Info("Parsed queue feed", zap.Int("entries", len(entries)))

	deps := rfced.QueueDeps{
		Store:      store,
		Mailer:     &logMailer{logger: l},
		Clock:      timeutil.SystemClock{},
		Logger:     l,
		StateCodes: rfced.QueueStateCodes(),
		MailTo:     cfg.RFCEd.MailTo,
	}

	changed, warnings, err := rfced.UpdateDraftsFromQueue(ctx, deps, entries)
	if err != nil {
		return fmt.Errorf("queue reconciliation failed: %w", err)
	}

	printSyncReport(l, len(changed), append(parseWarnings, warnings...))
	return nil
}

func runIndexSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, store, err := setupSync()
	if err != nil {
		return err
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	f, err := os.Open(indexFile)
	if err != nil {
		return fmt.Errorf("failed to open index feed: %w", err)
	}
	defer f.Close()

	entries, err := rfced.ParseIndex(f, l)
	if err != nil {
		return err
	}
	l.Info("Parsed index feed", zap.Int("entries", len(entries)))

	var errata []rfced.Erratum
	if errataFile != "" {
		data, err := os.ReadFile(errataFile)
		if err != nil {
			return fmt.Errorf("failed to read errata dataset: %w", err)
		}
		if err := json.Unmarshal(data, &errata); err != nil {
			return fmt.Errorf("failed to parse errata dataset: %w", err)
		}
		l.Info("Loaded errata dataset", zap.Int("records", len(errata)))
	}

	var cutoff *time.Time
	if skipOlderThan != "" {
		t, err := time.Parse("2006-01-02", skipOlderThan)
		if err != nil {
			return fmt.Errorf("invalid --skip-older-than date: %w", err)
		}
		cutoff = &t
	}

	deps := rfced.IndexDeps{
		Store: store,
		Archiver: docs.NewArchiveMover(client, cfg.Storage.Bucket,
			cfg.RFCEd.DraftPrefix, cfg.RFCEd.ArchivePrefix, l),
		Clock:     timeutil.SystemClock{},
		Logger:    l,
		StdLevels: rfced.StdLevels(),
		Streams:   rfced.Streams(),
		Zone:      timeutil.PublicationZone(),
	}

	results, err := rfced.UpdateDocsFromIndex(ctx, deps, entries, errata, cutoff)
	if err != nil {
		return fmt.Errorf("index reconciliation failed: %w", err)
	}

	publishedCount := 0
	for _, r := range results {
		if r.Published {
			publishedCount++
		}
		l.Info("Document changed",
			zap.String("doc", r.Doc.Name),
			zap.Strings("changes", r.Changes))
	}
	l.Info("Index reconciliation report",
		zap.Int("entries", len(entries)),
		zap.Int("changed", len(results)),
		zap.Int("published", publishedCount))
	return nil
}

// setupSync wires config, logger, database and store for a sync run.
func setupSync() (*config.Config, *zap.Logger, *docs.Store, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	// Correlate all entries of one sync run
	l = l.With(zap.String("run_id", uuid.NewString()))

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, l, docs.NewStore(db, l), nil
}

// printSyncReport prints a formatted reconciliation report using logger.
func printSyncReport(l *zap.Logger, changed int, warnings []string) {
	l.Info("Queue reconciliation report",
		zap.Int("changed", changed),
		zap.Int("warnings", len(warnings)))

	for _, w := range warnings {
		l.Warn("Reconciliation warning", zap.String("warning", w))
	}
}

// logMailer records outbound notification mails in the log. Actual mail
// delivery is handled by the tracker's mail pipeline, not by this service.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) SendMail(ctx context.Context, to, subject, body string) error {
	m.logger.Info("Outbound mail",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
