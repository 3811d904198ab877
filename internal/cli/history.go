package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show version history",
	Run:   runHistory,
}

var (
	historyContent string
	historyBranch  string
)

func init() {
	historyCmd.Flags().StringVar(&historyContent, "content", "", "Filter by content ID")
	historyCmd.Flags().StringVar(&historyBranch, "branch", "", "Filter by branch")
}

func runHistory(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	commits, err := c.Versions.History(historyContent, historyBranch)
	if err != nil {
		exitError("%v", err)
	}

	if len(commits) == 0 {
		fmt.Println("No commits yet")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, commit := range commits {
		yellow.Printf("v%d %s ", commit.Version, commit.ShortHash())
		fmt.Printf("(%s) %s\n", commit.Branch, commit.Message)
		fmt.Printf("  %s  %s  %d change(s)\n",
			commit.Author, commit.Timestamp.Format("2006-01-02 15:04:05"), len(commit.Changes))
	}
}
