package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <content-id> <from-version> <to-version>",
	Short: "Compare two versions of a content item",
	Args:  cobra.ExactArgs(3),
	Run:   runCompare,
}

func runCompare(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	from, err := strconv.Atoi(args[1])
	if err != nil {
		exitError("invalid from-version '%s'", args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		exitError("invalid to-version '%s'", args[2])
	}

	diff, err := c.Versions.Compare(args[0], from, to)
	if err != nil {
		exitError("%v", err)
	}
	if diff == nil {
		exitError("no commit found for '%s' at version %d or %d", args[0], from, to)
	}

	fmt.Printf("%s: v%d -> v%d\n", diff.ContentID, diff.FromVersion, diff.ToVersion)
	fmt.Printf("  %s\n", diff.Summary)
}
