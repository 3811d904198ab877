package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/config"
	"github.com/tomsboren/aivc/internal/graph"
	"github.com/tomsboren/aivc/internal/ledger"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an aivc repository in the current directory",
	Run:   runInit,
}

var initAuthor string

func init() {
	initCmd.Flags().StringVar(&initAuthor, "author", "system", "Default author for commits")
}

func runInit(cmd *cobra.Command, args []string) {
	cfg, err := config.Initialize(initAuthor)
	if err != nil {
		exitError("%v", err)
	}

	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		exitError("failed to create ledger: %v", err)
	}
	defer led.Close()
	if err := led.Initialize(); err != nil {
		exitError("failed to initialize ledger: %v", err)
	}

	gr, err := graph.Open(cfg.GraphPath())
	if err != nil {
		exitError("failed to create version graph: %v", err)
	}
	defer gr.Close()
	if err := gr.Initialize(); err != nil {
		exitError("failed to initialize version graph: %v", err)
	}

	fmt.Printf("Initialized empty aivc repository in %s\n", cfg.Path())
}
