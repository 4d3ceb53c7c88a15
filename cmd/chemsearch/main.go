/*
Package main is the entry point for the chemsearch CLI.

chemsearch connects a lab's chemical inventory to PubChem: it resolves
CAS registry numbers to PubChem compound ids, reads the PubChem searches
you ran in your browser, and combines the two with set operations.

Usage:

	chemsearch [command]

Available Commands:

	setup       Create the config file and data directory
	lookup      Resolve CAS numbers in an inventory to PubChem CIDs
	repair      Search unresolved inventory rows by compound name
	history     List PubChem searches from your browser history
	combine     Combine a PubChem search with your inventory
	results     List stored combination results
	export      Export resolved CIDs and the CAS mapping
	version     Show version information
	help        Help about any command

Examples:

	# Resolve an inventory
	chemsearch lookup inventory.json

	# Which of my chemicals are in my latest PubChem search?
	chemsearch history
	chemsearch combine 1 AND inventory.json
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/cli"
	"github.com/mf-rug/rug-chemsearch-cl/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chemsearch",
		Short: "Match your chemical inventory against PubChem searches",
		Long: `chemsearch resolves the CAS registry numbers in a chemical inventory to
PubChem compound ids and combines them with searches you ran on
pubchem.ncbi.nlm.nih.gov in your browser.

A typical session:
  chemsearch lookup inventory.json        # CAS -> CID resolution
  chemsearch history                      # searches found in your browser
  chemsearch combine 1 AND inventory.json # which of them do I have?`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewSetupCmd())
	rootCmd.AddCommand(cli.NewLookupCmd())
	rootCmd.AddCommand(cli.NewRepairCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewCombineCmd())
	rootCmd.AddCommand(cli.NewResultsCmd())
	rootCmd.AddCommand(cli.NewExportCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
