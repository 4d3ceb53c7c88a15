package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestCommandConstruction(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{"lookup", NewLookupCmd(), "lookup <inventory.json>", []string{"json", "dump"}},
		{"repair", NewRepairCmd(), "repair <inventory.json>", []string{"apply", "dump", "rows"}},
		{"history", NewHistoryCmd(), "history", []string{"json", "all", "refresh", "fingerprint"}},
		{"combine", NewCombineCmd(), "combine <search> <AND|OR|NOT> <inventory.json>", []string{"all"}},
		{"results", NewResultsCmd(), "results", []string{"json"}},
		{"export", NewExportCmd(), "export <inventory.json>", []string{"out"}},
		{"setup", NewSetupCmd(), "setup", nil},
		{"version", NewVersionCmd(), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd == nil {
				t.Fatal("command constructor returned nil")
			}
			if tt.cmd.Use != tt.use {
				t.Errorf("Expected Use=%q, got %q", tt.use, tt.cmd.Use)
			}
			if tt.cmd.Short == "" {
				t.Error("Command missing short description")
			}
			for _, flag := range tt.flags {
				if tt.cmd.Flags().Lookup(flag) == nil {
					t.Errorf("Flag %q not registered", flag)
				}
			}
		})
	}
}

func TestResultsSubcommands(t *testing.T) {
	cmd := NewResultsCmd()
	want := map[string]bool{"show": false, "save": false, "delete": false}
	for _, sub := range cmd.Commands() {
		want[sub.Name()] = true
	}
	for name, found := range want {
		if !found {
			t.Errorf("Subcommand %q not registered", name)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 30); got != "short" {
		t.Errorf("truncate changed short string: %q", got)
	}
	if got := truncate("a very long search name indeed here", 10); got != "a very ..." {
		t.Errorf("truncate = %q", got)
	}
}
