package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kozaktomas/lora-person/internal/ingest"
	"github.com/kozaktomas/lora-person/internal/media"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <person-id> <path> [path...]",
	Short: "Upload photos of a person",
	Long: `Upload photos from files or folders to a person profile.

Files are uploaded one by one in the order given. Each photo is authorized by
the backend, sent to storage and then registered. The first failure stops the
upload; photos registered before it stay uploaded.

By default, only files directly in the given folders are uploaded (non-recursive).
Use -r to search recursively in subdirectories.
Supported formats: jpg, jpeg, png, webp

Example:
  lora-person upload 12 /path/to/photos
  lora-person upload 12 portrait.jpg /path/to/folder1 /path/to/folder2
  lora-person upload -r 12 /path/to/photos  # recursive search`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolP("recursive", "r", false, "Search for photos recursively in subdirectories")
}

func newProgressBar(n int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// progressPrinter reports batch progress as a bar on a terminal and as one
// line per finished file otherwise.
func progressPrinter(total int) func(ingest.FileProgress) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := newProgressBar(total, "Uploading")
		return func(p ingest.FileProgress) {
			if p.State == ingest.StateDone {
				bar.Add(1)
			}
			if (p.Index == p.Total-1 && p.Finished()) || p.State == ingest.StateFailed {
				bar.Finish()
				fmt.Println()
			}
		}
	}
	return func(p ingest.FileProgress) {
		if p.Finished() {
			fmt.Printf("[%d/%d] %s: %s\n", p.Index+1, p.Total, p.File, p.State)
		}
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}
	paths := args[1:]
	recursive := mustGetBool(cmd, "recursive")

	cfg := loadConfig()

	filePaths, err := media.Collect(paths, recursive, &cfg.Limits)
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		fmt.Println("No image files found in the specified paths.")
		return nil
	}

	files, err := media.OpenAll(filePaths)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	view := ingest.NewView(client, personID, gateLimits(cfg), logger)
	if err := view.Refresh(ctx); err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}

	state := view.State()
	fmt.Printf("Uploading to person: %s (%d of %d slots free)\n", state.Snapshot.Person.Name,
		state.Controls.RemainingSlots, cfg.Limits.MaxAssets)
	if !state.Controls.CanUpload {
		return fmt.Errorf("person %d already has %d photos", personID, cfg.Limits.MaxAssets)
	}
	if len(files) > state.Controls.RemainingSlots {
		fmt.Printf("Warning: %d file(s) found but only %d slot(s) free, the upload will stop when the person is full\n",
			len(files), state.Controls.RemainingSlots)
	}
	fmt.Printf("Found %d image(s) to upload\n\n", len(files))

	view.SetProgressFunc(progressPrinter(len(files)))
	result, err := view.Upload(ctx, files)

	state = view.State()
	if err != nil {
		var batchErr *ingest.BatchError
		if errors.As(err, &batchErr) {
			fmt.Printf("Failed: %s (%s): %v\n", batchErr.File, batchErr.Step, batchErr.Err)
			fmt.Printf("Uploaded %d of %d file(s) before the failure\n", len(result.Photos), len(files))
		}
		return err
	}

	fmt.Printf("\nDone! Uploaded %d file(s), %d slot(s) left\n", len(result.Photos), state.Controls.RemainingSlots)
	if state.Error != "" {
		fmt.Printf("Warning: could not refresh person: %s\n", state.Error)
	} else if state.Controls.CanTriggerRun {
		fmt.Printf("Ready for preprocessing: lora-person preprocess %d\n", personID)
	} else {
		fmt.Printf("At least %d uploaded photos are needed before preprocessing (have %d)\n",
			cfg.Limits.MinForRun, state.Controls.UploadedCount)
	}
	return nil
}
