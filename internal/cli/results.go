package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
)

// NewResultsCmd creates the 'results' command group for stored
// set-combination results.
func NewResultsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored combination results",
		Long: `List the results of earlier 'chemsearch combine' runs. Unsaved results
rotate out after ten newer ones accumulate; saved results are kept until
deleted.`,
		Example: `  chemsearch results
  chemsearch results show a1b2c3d4
  chemsearch results save a1b2c3d4
  chemsearch results delete a1b2c3d4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsList(jsonOutput)
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	cmd.AddCommand(newResultsShowCmd())
	cmd.AddCommand(newResultsSaveCmd())
	cmd.AddCommand(newResultsDeleteCmd())
	return cmd
}

func newResultsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a result's matching CIDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsShow(args[0])
		},
	}
}

func newResultsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Pin a result so it survives rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsSetSaved(args[0], true)
		},
	}
}

func newResultsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsDelete(args[0])
		},
	}
}

func runResultsList(jsonOutput bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	results, err := newFilterStore(cfg).Results()
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No stored results. Run 'chemsearch combine' first.")
		return nil
	}

	fmt.Printf("Stored results (%d):\n\n", len(results))
	for _, r := range results {
		pin := " "
		if r.Saved {
			pin = "*"
		}
		fmt.Printf("  %s %s  %-4s %-30s %5d matches  %s\n",
			pin, r.ID, r.Operation, truncate(r.SearchName, 30), r.MatchCount,
			r.Created.Format("2006-01-02"))
	}
	fmt.Println("\n* = saved")
	return nil
}

func runResultsShow(id string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	result, err := newFilterStore(cfg).Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (%d matches)\n", result.Operation, orDash(result.SearchName), result.MatchCount)
	if result.PubChemURL != "" {
		fmt.Printf("%s\n", result.PubChemURL)
	}
	for _, cid := range result.MatchingCIDs {
		fmt.Println(cid)
	}
	return nil
}

func runResultsSetSaved(id string, saved bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := newFilterStore(cfg).SetSaved(id, saved); err != nil {
		return err
	}
	fmt.Printf("Result %s saved.\n", id)
	return nil
}

func runResultsDelete(id string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := newFilterStore(cfg).DeleteResult(id); err != nil {
		return err
	}
	fmt.Printf("Result %s deleted.\n", id)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
