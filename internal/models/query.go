package models

import "time"

// DefaultPageSize is the page size used when a query does not specify one.
const DefaultPageSize = 50

// LogQuery is a conjunctive filter over the operation ledger. Zero-valued
// fields are ignored. Results are ordered by timestamp descending and
// paginated with a 1-based page number.
type LogQuery struct {
	AgentID        string          `json:"agent_id,omitempty"`
	ContentID      string          `json:"content_id,omitempty"`
	OperationType  OperationType   `json:"operation_type,omitempty" validate:"omitempty,oneof=create update delete publish unpublish analyze generate approve reject rollback"`
	Status         ExecutionStatus `json:"status,omitempty" validate:"omitempty,oneof=success partial failed rolled-back"`
	RiskLevel      RiskLevel       `json:"risk_level,omitempty" validate:"omitempty,oneof=low medium high critical"`
	ApprovalStatus ApprovalStatus  `json:"approval_status,omitempty" validate:"omitempty,oneof=auto pending approved rejected revised"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	Page           int             `json:"page,omitempty" validate:"gte=0"`
	Limit          int             `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// VersionSearch filters the commit history by author/message substring,
// time range, and change type.
type VersionSearch struct {
	Author     string     `json:"author,omitempty"`
	Message    string     `json:"message,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	ChangeType ChangeType `json:"change_type,omitempty"`
}
