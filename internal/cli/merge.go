package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/models"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source> <target>",
	Short: "Merge a branch into another",
	Long: `Land the source branch's commits on the target branch. All strategies
delete the source branch on success.

Strategies:
  squash  combine all source changes into one commit
  rebase  replay each source commit as a modification
  merge   carry only the latest source commit`,
	Args: cobra.ExactArgs(2),
	Run:  runMerge,
}

var (
	mergeStrategy string
	mergeAuthor   string
)

func init() {
	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", "squash", "Merge strategy (squash, rebase, merge)")
	mergeCmd.Flags().StringVar(&mergeAuthor, "author", "", "Merge author (defaults to config)")
}

func runMerge(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	author := mergeAuthor
	if author == "" {
		author = c.Config.DefaultAuthor
	}

	result, err := c.Versions.Merge(args[0], args[1], models.MergeStrategy(mergeStrategy), author)
	if err != nil {
		exitError("%v", err)
	}
	if !result.Success {
		exitError("nothing to merge from '%s'", args[0])
	}

	// The session may have been sitting on the deleted source branch.
	if c.Session.Branch() == args[0] {
		if _, err := c.Versions.Checkout(c.Session, args[1]); err != nil {
			exitError("%v", err)
		}
		c.saveSession()
	}

	fmt.Printf("Merged '%s' into '%s' (%s, %d commit(s))\n",
		args[0], args[1], result.Strategy, result.CommitsCreated)
}
