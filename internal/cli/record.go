package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/models"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an automated content operation",
	Long: `Record one operation in the audit ledger. The operation is
risk-classified; high-risk operations are held pending human review.

Examples:
  aivc record --agent-id gen-1 --agent-name "Article Writer" --type create --content-id c1 --title "Draft"
  aivc record --agent-id gen-1 --type publish --content-id c1 --confidence 0.93`,
	Run: runRecord,
}

var (
	recordAgentID    string
	recordAgentName  string
	recordAgentType  string
	recordType       string
	recordContent    string
	recordContentID  string
	recordTitle      string
	recordModel      string
	recordConfidence float64
	recordProcessing int64
)

func init() {
	recordCmd.Flags().StringVar(&recordAgentID, "agent-id", "", "Agent identifier")
	recordCmd.Flags().StringVar(&recordAgentName, "agent-name", "", "Agent display name")
	recordCmd.Flags().StringVar(&recordAgentType, "agent-type", "", "Agent type")
	recordCmd.Flags().StringVar(&recordType, "type", "create", "Operation type")
	recordCmd.Flags().StringVar(&recordContent, "content-type", "", "Content type")
	recordCmd.Flags().StringVar(&recordContentID, "content-id", "", "Content identifier")
	recordCmd.Flags().StringVar(&recordTitle, "title", "", "Content title")
	recordCmd.Flags().StringVar(&recordModel, "model", "", "AI model used")
	recordCmd.Flags().Float64Var(&recordConfidence, "confidence", -1, "Confidence score (0-1)")
	recordCmd.Flags().Int64Var(&recordProcessing, "processing-time", 0, "Processing time in milliseconds")
}

func runRecord(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	input := &models.OperationInput{
		AgentID:        recordAgentID,
		AgentName:      recordAgentName,
		AgentType:      recordAgentType,
		OperationType:  models.OperationType(recordType),
		ContentType:    recordContent,
		ContentID:      recordContentID,
		ContentTitle:   recordTitle,
		AIModel:        recordModel,
		ProcessingTime: recordProcessing,
	}
	if cmd.Flags().Changed("confidence") {
		input.ConfidenceScore = &recordConfidence
	}

	rec, err := c.Audit.LogOperation(input)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Recorded %s operation %s\n", rec.OperationType, rec.LogID)
	fmt.Printf("  risk level: %s\n", rec.RiskLevel)
	if rec.RequiresHumanReview {
		color.New(color.FgYellow).Printf("  held pending human review\n")
	} else {
		fmt.Printf("  approval: %s\n", rec.ApprovalStatus)
	}
}
