package cmd

import (
	"context"
	"errors"
	"fmt"

	"doc-sync/core/config"
	"doc-sync/core/logger"
	"doc-sync/feature/rfced"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	notifyDraft string
	notifyURL   string
)

// notifyCmd posts an approved-draft notification to the RFC Editor.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notify the RFC Editor of an approved draft",
	Long: `Post an approved draft name to the RFC Editor notification endpoint
so they can retrieve the data from the tracker and start processing it.

Examples:
  doc-sync notify --draft draft-ietf-opsawg-ipfix-tcpo-v6eh

  # Override the configured endpoint
  doc-sync notify --draft draft-ietf-opsawg-ipfix-tcpo-v6eh --url https://example.org/parser.php`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyDraft, "draft", "", "Name of the approved draft (required)")
	notifyCmd.Flags().StringVar(&notifyURL, "url", "", "Notification endpoint (defaults to configured URL)")
	_ = notifyCmd.MarkFlagRequired("draft")

	RootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	l = l.With(zap.String("run_id", uuid.NewString()))

	postURL := notifyURL
	if postURL == "" {
		postURL = cfg.RFCEd.NotifyURL
	}

	text, errMsg := rfced.PostApprovedDraft(context.Background(), cfg.RFCEd, l, postURL, notifyDraft)
	if errMsg != "" {
		return errors.New(errMsg)
	}

	fmt.Println(text)
	return nil
}
