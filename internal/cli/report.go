package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an audit report for a period",
	Run:   runReport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show operation statistics over a trailing window",
	Run:   runStats,
}

var (
	reportFrom string
	reportTo   string
	statsDays  int
)

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Period start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Period end (YYYY-MM-DD)")
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Window size in days")
}

func runReport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	if reportFrom != "" {
		start = parseDate(reportFrom)
	}
	if reportTo != "" {
		// Include the whole end day.
		end = parseDate(reportTo).AddDate(0, 0, 1)
	}

	report, err := c.Audit.GenerateAuditReport(start, end)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Audit report %s .. %s\n",
		report.Period.StartDate.Format("2006-01-02"),
		report.Period.EndDate.Format("2006-01-02"))
	fmt.Printf("  total operations: %d\n", report.TotalOperations)
	fmt.Printf("  pending reviews:  %d\n", report.PendingReviews)
	fmt.Printf("  rollbacks:        %d\n", report.Rollbacks)
	fmt.Printf("  avg confidence:   %.2f\n", report.AverageConfidenceScore)

	if len(report.ByType) > 0 {
		fmt.Println("  by type:")
		for op, count := range report.ByType {
			fmt.Printf("    %-10s %d\n", op, count)
		}
	}
	if len(report.ByRiskLevel) > 0 {
		fmt.Println("  by risk:")
		for level, count := range report.ByRiskLevel {
			fmt.Printf("    %-10s %d\n", level, count)
		}
	}
	if len(report.TopAgents) > 0 {
		fmt.Println("  top agents:")
		for _, agent := range report.TopAgents {
			fmt.Printf("    %-24s %d\n", agent.Name, agent.Count)
		}
	}
}

func runStats(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	stats, err := c.Audit.OperationStats(statsDays)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Last %d days: %d operations, %.2f%% success\n",
		stats.PeriodDays, stats.TotalOperations, stats.SuccessRate)
	for op, count := range stats.ByType {
		fmt.Printf("  %-10s %d\n", op, count)
	}
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		exitError("invalid date '%s' (expected YYYY-MM-DD)", s)
	}
	return t.UTC()
}
