package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "List, create, or delete branches",
	Long: `Manage branches in the version graph.

Without flags, lists all branches. AI work branches are named from the
agent and task identifiers.

Examples:
  aivc branch                          # List all branches
  aivc branch --agent gen-1 --task t7  # Create branch ai/gen-1/t7
  aivc branch -d ai/gen-1/t7           # Delete a branch`,
	Run: runBranch,
}

var (
	branchDelete string
	branchAgent  string
	branchTask   string
)

func init() {
	branchCmd.Flags().StringVarP(&branchDelete, "delete", "d", "", "Delete a branch")
	branchCmd.Flags().StringVar(&branchAgent, "agent", "", "Agent ID for a new AI branch")
	branchCmd.Flags().StringVar(&branchTask, "task", "", "Task ID for a new AI branch")
}

func runBranch(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if branchDelete != "" {
		ok, err := c.Versions.DeleteBranch(c.Session, branchDelete)
		if err != nil {
			exitError("%v", err)
		}
		if !ok {
			exitError("cannot delete branch '%s'", branchDelete)
		}
		c.saveSession()
		fmt.Printf("Deleted branch '%s'\n", branchDelete)
		return
	}

	if branchAgent != "" || branchTask != "" {
		if branchAgent == "" || branchTask == "" {
			exitError("both --agent and --task are required to create an AI branch")
		}
		name, err := c.Versions.CreateAIBranch(branchAgent, branchTask)
		if err != nil {
			exitError("%v", err)
		}
		fmt.Printf("Created branch '%s'\n", name)
		return
	}

	branches, err := c.Versions.ListBranches()
	if err != nil {
		exitError("failed to list branches: %v", err)
	}

	green := color.New(color.FgGreen)
	for _, branch := range branches {
		if branch.Name == c.Session.Branch() {
			green.Printf("* %s\n", branch.Name)
		} else {
			fmt.Printf("  %s\n", branch.Name)
		}
	}
}
