package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/diff"
	"github.com/tomsboren/aivc/internal/models"
)

var diffCmd = &cobra.Command{
	Use:   "diff <before.json> <after.json>",
	Short: "Show field-level changes between two content snapshots",
	Long: `Compare two JSON content snapshots field by field. Fields present in
only one snapshot are reported as added or removed; fields present in both
with different values are reported as modified.`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

var (
	diffContentID string
	diffStat      bool
)

func init() {
	diffCmd.Flags().StringVar(&diffContentID, "content", "", "Content identifier for the diff")
	diffCmd.Flags().BoolVar(&diffStat, "stat", false, "Show the summary line only")
}

func runDiff(cmd *cobra.Command, args []string) {
	before := readSnapshot(args[0])
	after := readSnapshot(args[1])

	result := diff.Compute(diffContentID, before, after)
	if result.ChangeCount == 0 {
		fmt.Println("No changes")
		return
	}

	if diffStat {
		fmt.Println(result.Summary)
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for _, change := range result.Changes {
		switch change.ChangeType {
		case models.ChangeAdded:
			green.Printf("+ %s: %v\n", change.Field, change.After)
		case models.ChangeRemoved:
			red.Printf("- %s: %v\n", change.Field, change.Before)
		case models.ChangeModified:
			yellow.Printf("~ %s: %v -> %v\n", change.Field, change.Before, change.After)
		}
	}
	fmt.Printf("%d field(s) changed: %s\n", result.ChangeCount, result.Summary)
}

func readSnapshot(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		exitError("failed to read snapshot %s: %v", path, err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		exitError("failed to parse snapshot %s: %v", path, err)
	}
	return snapshot
}
