package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List operations awaiting human review",
	Run:   runPending,
}

var approveCmd = &cobra.Command{
	Use:   "approve <log-id>",
	Short: "Approve a pending operation",
	Args:  cobra.ExactArgs(1),
	Run:   runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <log-id>",
	Short: "Reject a pending operation",
	Args:  cobra.ExactArgs(1),
	Run:   runReject,
}

var (
	reviewApprover string
	reviewComment  string
)

func init() {
	approveCmd.Flags().StringVar(&reviewApprover, "by", "", "Reviewer name")
	approveCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	approveCmd.MarkFlagRequired("by")

	rejectCmd.Flags().StringVar(&reviewApprover, "by", "", "Reviewer name")
	rejectCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	rejectCmd.MarkFlagRequired("by")
	rejectCmd.MarkFlagRequired("comment")
}

func runPending(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	records, err := c.Audit.GetPendingReviews()
	if err != nil {
		exitError("%v", err)
	}

	if len(records) == 0 {
		fmt.Println("No pending reviews")
		return
	}

	for _, rec := range records {
		printRecord(rec)
	}
}

func runApprove(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ok, err := c.Audit.ApproveOperation(args[0], reviewApprover, reviewComment)
	if err != nil {
		exitError("%v", err)
	}
	if !ok {
		exitError("record '%s' not found", args[0])
	}
	color.New(color.FgGreen).Printf("Approved %s\n", args[0])
}

func runReject(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ok, err := c.Audit.RejectOperation(args[0], reviewApprover, reviewComment)
	if err != nil {
		exitError("%v", err)
	}
	if !ok {
		exitError("record '%s' not found", args[0])
	}
	color.New(color.FgRed).Printf("Rejected %s\n", args[0])
}
