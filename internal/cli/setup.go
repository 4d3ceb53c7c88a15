package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
)

// dumpDownloadURL is PubChem's bulk CID-CAS extract.
const dumpDownloadURL = "https://ftp.ncbi.nlm.nih.gov/pubchem/Compound/Extras/CID-CAS.gz"

// NewSetupCmd creates the 'setup' command that initializes the config
// file and data directory.
func NewSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the chemsearch config and data directory",
		Long: `Write a default configuration to ~/.chemsearch/config.json and create
the data directory. Existing configuration is left untouched.`,
		Example: `  chemsearch setup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup()
		},
	}
	return cmd
}

func runSetup() error {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return nil
	}

	cfg := config.Default()
	if err := cfg.Save(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	fmt.Printf("Created config: %s\n", path)
	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	fmt.Println("\nFor fast offline CAS resolution, download PubChem's bulk extract:")
	fmt.Printf("  curl -o %s %s\n", cfg.DumpFile, dumpDownloadURL)
	fmt.Println("Without it, resolution falls back to the network services.")
	return nil
}
