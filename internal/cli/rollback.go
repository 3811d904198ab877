package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <log-id>",
	Short: "Roll back a recorded operation",
	Long: `Neutralize a prior operation without deleting it: the original record
is marked rolled-back and a compensating record is appended.`,
	Args: cobra.ExactArgs(1),
	Run:  runRollback,
}

var (
	rollbackReason string
	rollbackBy     string
)

func init() {
	rollbackCmd.Flags().StringVar(&rollbackReason, "reason", "", "Why the operation is being rolled back")
	rollbackCmd.Flags().StringVar(&rollbackBy, "by", "", "Who requested the rollback")
	rollbackCmd.MarkFlagRequired("reason")
	rollbackCmd.MarkFlagRequired("by")
}

func runRollback(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ok, err := c.Audit.Rollback(args[0], rollbackReason, rollbackBy)
	if err != nil {
		exitError("%v", err)
	}
	if !ok {
		exitError("record '%s' not found or not eligible for rollback", args[0])
	}
	fmt.Printf("Rolled back %s\n", args[0])
}
