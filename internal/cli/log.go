package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/models"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Query the operation ledger",
	Long:  `Display audit records, newest first, with conjunctive filters.`,
	Run:   runAuditLog,
}

var (
	logAgent    string
	logContent  string
	logType     string
	logStatus   string
	logRisk     string
	logApproval string
	logPage     int
	logLimit    int
)

func init() {
	logCmd.Flags().StringVar(&logAgent, "agent", "", "Filter by agent ID")
	logCmd.Flags().StringVar(&logContent, "content", "", "Filter by content ID")
	logCmd.Flags().StringVar(&logType, "type", "", "Filter by operation type")
	logCmd.Flags().StringVar(&logStatus, "status", "", "Filter by execution status")
	logCmd.Flags().StringVar(&logRisk, "risk", "", "Filter by risk level")
	logCmd.Flags().StringVar(&logApproval, "approval", "", "Filter by approval status")
	logCmd.Flags().IntVar(&logPage, "page", 1, "Page number (1-based)")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "Page size")
}

func runAuditLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	records, err := c.Audit.QueryLogs(&models.LogQuery{
		AgentID:        logAgent,
		ContentID:      logContent,
		OperationType:  models.OperationType(logType),
		Status:         models.ExecutionStatus(logStatus),
		RiskLevel:      models.RiskLevel(logRisk),
		ApprovalStatus: models.ApprovalStatus(logApproval),
		Page:           logPage,
		Limit:          logLimit,
	})
	if err != nil {
		exitError("%v", err)
	}

	if len(records) == 0 {
		fmt.Println("No matching records")
		return
	}

	for _, rec := range records {
		printRecord(rec)
	}
}

func printRecord(rec *models.OperationRecord) {
	yellow := color.New(color.FgYellow)

	yellow.Printf("%s ", rec.LogID)
	fmt.Printf("%s %s", rec.Timestamp.Format("2006-01-02 15:04:05"), rec.OperationType)
	if rec.ContentID != "" {
		fmt.Printf(" %s", rec.ContentID)
	}
	fmt.Println()
	fmt.Printf("  agent: %s  risk: %s  status: %s  approval: %s\n",
		rec.AgentName, riskColor(rec.RiskLevel).Sprint(rec.RiskLevel), rec.Status, rec.ApprovalStatus)
	if rec.ErrorMessage != "" {
		color.New(color.FgRed).Printf("  %s\n", rec.ErrorMessage)
	}
}

func riskColor(level models.RiskLevel) *color.Color {
	switch level {
	case models.RiskCritical:
		return color.New(color.FgRed, color.Bold)
	case models.RiskHigh:
		return color.New(color.FgRed)
	case models.RiskMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
