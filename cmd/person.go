package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/constants"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "Manage person profiles",
	Long:  `Commands for creating, listing, showing and deleting person profiles.`,
}

var personCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a person profile",
	Long: `Create a person profile. The backend only accepts profiles of adults who
consented to having their photos used for training, so both --consent and
--adult must be given.

Example:
  lora-person person create "Jane Doe" --consent --adult`,
	Args: cobra.ExactArgs(1),
	RunE: runPersonCreate,
}

var personListCmd = &cobra.Command{
	Use:   "list",
	Short: "List person profiles",
	RunE:  runPersonList,
}

var personShowCmd = &cobra.Command{
	Use:   "show <person-id>",
	Short: "Show a person profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonShow,
}

var personDeleteCmd = &cobra.Command{
	Use:   "delete <person-id>",
	Short: "Delete a person profile together with its photos",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonDelete,
}

func init() {
	rootCmd.AddCommand(personCmd)
	personCmd.AddCommand(personCreateCmd, personListCmd, personShowCmd, personDeleteCmd)

	personCreateCmd.Flags().Bool("consent", false, "Confirm the person consented to the use of their photos")
	personCreateCmd.Flags().Bool("adult", false, "Confirm the person is an adult")

	personListCmd.Flags().Int("skip", 0, "Number of persons to skip")
	personListCmd.Flags().Int("limit", constants.DefaultPersonsPageSize, "Number of persons to retrieve")
	personListCmd.Flags().Bool("counts", false, "Also fetch the photo count of every person")
	personListCmd.Flags().Int("concurrency", constants.CountConcurrency, "Number of parallel requests when fetching counts")

	personShowCmd.Flags().Bool("json", false, "Output as JSON")
}

func runPersonCreate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	person, err := client.CreatePerson(cmd.Context(), backend.PersonCreate{
		Name:             args[0],
		ConsentConfirmed: mustGetBool(cmd, "consent"),
		SubjectIsAdult:   mustGetBool(cmd, "adult"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created person %d (%s)\n", person.ID, person.Name)
	return nil
}

// photoCounts fetches the photo count of every person with bounded concurrency.
func photoCounts(ctx context.Context, client *backend.Client, persons []backend.Person, concurrency int) ([]int, error) {
	counts := make([]int, len(persons))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i := range persons {
		g.Go(func() error {
			photos, err := client.ListPhotos(ctx, persons[i].ID)
			if err != nil {
				return fmt.Errorf("person %d: %w", persons[i].ID, err)
			}
			counts[i] = len(photos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func runPersonList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	persons, err := client.ListPersons(cmd.Context(), mustGetInt(cmd, "skip"), mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}

	if len(persons) == 0 {
		fmt.Println("No persons found.")
		return nil
	}

	var counts []int
	if mustGetBool(cmd, "counts") {
		counts, err = photoCounts(cmd.Context(), client, persons, mustGetInt(cmd, "concurrency"))
		if err != nil {
			return fmt.Errorf("failed to fetch photo counts: %w", err)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if counts != nil {
		fmt.Fprintln(w, "ID\tNAME\tPHOTOS\tCREATED")
		fmt.Fprintln(w, "--\t----\t------\t-------")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		fmt.Fprintln(w, "--\t----\t-------")
	}

	for i, p := range persons {
		if counts != nil {
			fmt.Fprintf(w, "%d\t%s\t%d/%d\t%s\n", p.ID, p.Name, counts[i], cfg.Limits.MaxAssets, p.CreatedAt)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.CreatedAt)
		}
	}

	w.Flush()

	fmt.Printf("\nTotal: %d persons\n", len(persons))
	return nil
}

func runPersonShow(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	person, err := client.GetPerson(cmd.Context(), personID)
	if backend.IsNotFoundError(err) {
		return fmt.Errorf("person %d not found", personID)
	}
	if err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(person)
	}

	fmt.Printf("ID:       %d\n", person.ID)
	fmt.Printf("Name:     %s\n", person.Name)
	fmt.Printf("Consent:  %t\n", person.ConsentConfirmed)
	fmt.Printf("Adult:    %t\n", person.SubjectIsAdult)
	fmt.Printf("Created:  %s\n", person.CreatedAt)
	return nil
}

func runPersonDelete(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := client.DeletePerson(cmd.Context(), personID); err != nil {
		if backend.IsNotFoundError(err) {
			return fmt.Errorf("person %d not found", personID)
		}
		return fmt.Errorf("person %d: %w", personID, err)
	}

	fmt.Printf("Deleted person %d\n", personID)
	return nil
}
