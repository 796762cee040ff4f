package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/lora-person/internal/ingest"
)

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Photo operations",
	Long:  `Commands for working with individual photos of a person.`,
}

var photoDeleteCmd = &cobra.Command{
	Use:   "delete <person-id> <photo-id> [photo-id...]",
	Short: "Delete photos of a person",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPhotoDelete,
}

var photoURLCmd = &cobra.Command{
	Use:   "url <person-id> <photo-id>",
	Short: "Print a short-lived URL of a photo",
	Args:  cobra.ExactArgs(2),
	RunE:  runPhotoURL,
}

func init() {
	rootCmd.AddCommand(photoCmd)
	photoCmd.AddCommand(photoDeleteCmd, photoURLCmd)
}

func runPhotoDelete(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}
	photoIDs := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := parseID(arg, "photo")
		if err != nil {
			return err
		}
		photoIDs = append(photoIDs, id)
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	view := ingest.NewView(client, personID, gateLimits(cfg), logger)
	var failed int
	for _, id := range photoIDs {
		if err := view.DeletePhoto(cmd.Context(), id); err != nil {
			fmt.Printf("Failed: photo %d: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("Deleted photo %d\n", id)
	}

	if state := view.State(); state.Snapshot != nil {
		fmt.Printf("\n%d photo(s) left, %d slot(s) free\n", len(state.Snapshot.Photos), state.Controls.RemainingSlots)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d photo(s) could not be deleted", failed, len(photoIDs))
	}
	return nil
}

func runPhotoURL(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}
	photoID, err := parseID(args[1], "photo")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	url, err := client.GetPhotoURL(cmd.Context(), personID, photoID)
	if err != nil {
		return fmt.Errorf("photo %d: %w", photoID, err)
	}
	fmt.Println(url)
	return nil
}
