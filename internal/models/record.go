package models

import "time"

// OperationType identifies the kind of automated action being recorded.
type OperationType string

const (
	OperationCreate    OperationType = "create"
	OperationUpdate    OperationType = "update"
	OperationDelete    OperationType = "delete"
	OperationPublish   OperationType = "publish"
	OperationUnpublish OperationType = "unpublish"
	OperationAnalyze   OperationType = "analyze"
	OperationGenerate  OperationType = "generate"
	OperationApprove   OperationType = "approve"
	OperationReject    OperationType = "reject"
	OperationRollback  OperationType = "rollback"
)

// RiskLevel classifies how dangerous an operation is. High and critical
// operations are gated behind human review.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ApprovalStatus tracks where a record sits in the review workflow.
type ApprovalStatus string

const (
	ApprovalAuto     ApprovalStatus = "auto"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalRevised  ApprovalStatus = "revised"
)

// ExecutionStatus is the outcome of the recorded operation.
type ExecutionStatus string

const (
	StatusSuccess    ExecutionStatus = "success"
	StatusPartial    ExecutionStatus = "partial"
	StatusFailed     ExecutionStatus = "failed"
	StatusRolledBack ExecutionStatus = "rolled-back"
)

// OperationRecord is one audit-trail entry describing a single automated or
// human-reviewed action on a content item. Records are append-only: after
// creation, only Status, the approval decision fields, and ErrorMessage may
// change, and a rolled-back record is never deleted.
type OperationRecord struct {
	LogID     string    `json:"log_id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`

	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	AgentType string `json:"agent_type"`

	OperationType OperationType `json:"operation_type"`
	ContentType   string        `json:"content_type"`
	ContentID     string        `json:"content_id,omitempty"`
	ContentTitle  string        `json:"content_title,omitempty"`

	// Advisory integrity fingerprints: InputHash covers the submitted
	// payload, OutputHash the finalized record. They are never verified.
	InputHash  string `json:"input_hash,omitempty"`
	OutputHash string `json:"output_hash,omitempty"`

	AIModel         string   `json:"ai_model,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	QualityScore    *float64 `json:"quality_score,omitempty"`
	ProcessingTime  int64    `json:"processing_time"` // milliseconds

	RiskLevel       RiskLevel      `json:"risk_level"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	ApprovedBy      string         `json:"approved_by,omitempty"`
	ApprovalComment string         `json:"approval_comment,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`

	RequiresHumanReview bool `json:"requires_human_review"`
	RollbackAvailable   bool `json:"rollback_available"`

	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ShortID returns a shortened log ID for display.
func (r *OperationRecord) ShortID() string {
	if len(r.LogID) > 12 {
		return r.LogID[:12]
	}
	return r.LogID
}

// OperationInput is the operation description submitted by the generation
// pipeline or an editor. Absent fields receive documented defaults when the
// record is finalized; RiskLevel and Status may be supplied to override the
// derived values (the forced-pending rule for high-risk operations still
// applies).
type OperationInput struct {
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	AgentType string `json:"agent_type,omitempty"`

	OperationType OperationType `json:"operation_type,omitempty"`
	ContentType   string        `json:"content_type,omitempty"`
	ContentID     string        `json:"content_id,omitempty"`
	ContentTitle  string        `json:"content_title,omitempty"`

	AIModel         string   `json:"ai_model,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	QualityScore    *float64 `json:"quality_score,omitempty"`
	ProcessingTime  int64    `json:"processing_time,omitempty"`

	RiskLevel         RiskLevel       `json:"risk_level,omitempty"`
	Status            ExecutionStatus `json:"status,omitempty"`
	RollbackAvailable *bool           `json:"rollback_available,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}
