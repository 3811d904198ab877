// Package cli implements the command-line interface for aivc.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tomsboren/aivc/internal/audit"
	"github.com/tomsboren/aivc/internal/config"
	"github.com/tomsboren/aivc/internal/graph"
	"github.com/tomsboren/aivc/internal/ledger"
	"github.com/tomsboren/aivc/internal/version"
)

// cmdContext holds common resources for CLI commands.
type cmdContext struct {
	Config   *config.Config
	Ledger   *ledger.Ledger
	Graph    *graph.Store
	Audit    *audit.Service
	Versions *version.Service
	Session  *version.Session
	Logger   *zap.Logger
}

// Close releases resources held by cmdContext.
func (c *cmdContext) Close() {
	if c.Ledger != nil {
		c.Ledger.Close()
	}
	if c.Graph != nil {
		c.Graph.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// initContext loads config, opens both stores, and builds the services.
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	logger := zap.Must(zap.NewProduction())

	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		exitError("failed to open ledger: %v", err)
	}
	if err := led.Initialize(); err != nil {
		led.Close()
		exitError("failed to initialize ledger: %v", err)
	}

	gr, err := graph.Open(cfg.GraphPath())
	if err != nil {
		led.Close()
		exitError("failed to open version graph: %v", err)
	}
	if err := gr.Initialize(); err != nil {
		led.Close()
		gr.Close()
		exitError("failed to initialize version graph: %v", err)
	}

	var notifier audit.Notifier
	if cfg.ReviewWebhook != "" {
		notifier = audit.NewWebhookNotifier(cfg.ReviewWebhook)
	}

	current, err := gr.CurrentBranch()
	if err != nil {
		exitError("failed to read current branch: %v", err)
	}

	return &cmdContext{
		Config:   cfg,
		Ledger:   led,
		Graph:    gr,
		Audit:    audit.NewService(led, notifier, logger),
		Versions: version.NewService(gr, logger),
		Session:  version.NewSessionAt(current),
		Logger:   logger,
	}
}

// saveSession persists the session's current branch for the next run.
func (c *cmdContext) saveSession() {
	if err := c.Graph.SetCurrentBranch(c.Session.Branch()); err != nil {
		exitError("failed to save current branch: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aivc",
	Short: "Provenance and version control for machine-generated content",
	Long: `aivc records every automated content operation in an append-only audit
ledger, gates high-risk operations behind human approval, and tracks content
through a branch/commit version graph with git-like merge strategies.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(exportCmd)
}

// exitError prints an error and exits.
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
