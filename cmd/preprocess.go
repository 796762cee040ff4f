package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/lora-person/internal/ingest"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <person-id>",
	Short: "Start a preprocess run for a person",
	Long: `Start preprocessing of the uploaded photos of a person. The run is only
started when the person has enough uploaded photos.

Example:
  lora-person preprocess 12`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	view := ingest.NewView(client, personID, gateLimits(cfg), logger)
	if err := view.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}

	start, err := view.TriggerRun(cmd.Context())
	if errors.Is(err, ingest.ErrRunDisabled) {
		return fmt.Errorf("%w: %d uploaded photo(s), at least %d required",
			err, view.State().Controls.UploadedCount, cfg.Limits.MinForRun)
	}
	if err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}

	fmt.Printf("Started preprocess run %d (job %d, status %s)\n", start.PreprocessRunID, start.JobID, start.Status)
	fmt.Printf("Follow it with: lora-person status %d\n", personID)
	return nil
}
