package cmd

import (
	"fmt"
	"os"
	"path"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

var statusCmd = &cobra.Command{
	Use:   "status <person-id>",
	Short: "Show the photos and the latest preprocess run of a person",
	Long: `Fetch a person together with the status of every uploaded photo and the
latest preprocess run. Photo statuses are shown as the backend reports them.

Example:
  lora-person status 12
  lora-person status 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("json", false, "Output as JSON")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printRun(run *backend.PreprocessRun) {
	if run == nil {
		fmt.Println("\nNo preprocess run yet.")
		return
	}
	fmt.Printf("\nLatest preprocess run %d: %s\n", run.ID, run.Status)
	fmt.Printf("  Accepted:   %d\n", run.ImagesAccepted)
	fmt.Printf("  Rejected:   %d\n", run.ImagesRejected)
	fmt.Printf("  Duplicates: %d\n", run.ImagesDuplicates)
	fmt.Printf("  Started:    %s\n", deref(run.StartedAt))
	fmt.Printf("  Finished:   %s\n", deref(run.FinishedAt))
	if run.OutputS3Prefix != nil {
		fmt.Printf("  Output:     %s\n", *run.OutputS3Prefix)
	}
	if run.ErrorMessage != nil {
		fmt.Printf("  Error:      %s\n", *run.ErrorMessage)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	snapshot, err := ingest.NewPoller(client, logger).Fetch(cmd.Context(), personID)
	if err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(snapshot)
	}

	gate := ingest.NewGate(gateLimits(cfg))
	uploaded := gate.UploadedCount(snapshot.Photos)

	fmt.Printf("Person: %s (%d)\n", snapshot.Person.Name, snapshot.Person.ID)
	fmt.Printf("Photos: %d/%d (%d uploaded, %d slot(s) free)\n\n", len(snapshot.Photos), cfg.Limits.MaxAssets,
		uploaded, gate.RemainingSlots(len(snapshot.Photos)))

	if len(snapshot.Photos) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tTYPE\tSIZE\tSTATUS\tCREATED")
		fmt.Fprintln(w, "--\t----\t----\t----\t------\t-------")
		for _, p := range snapshot.Photos {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", p.ID, path.Base(p.S3Key), p.ContentType, p.SizeBytes, p.Status, p.CreatedAt)
		}
		w.Flush()
	}

	printRun(snapshot.Run)

	if gate.CanTriggerRun(uploaded, false) {
		fmt.Printf("\nPreprocessing can be started: lora-person preprocess %d\n", personID)
	} else {
		fmt.Printf("\nPreprocessing needs at least %d uploaded photos\n", cfg.Limits.MinForRun)
	}
	return nil
}
