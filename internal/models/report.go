package models

import "time"

// ReportPeriod bounds an audit report. Zero times mean an open bound.
type ReportPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// AgentActivity ranks one agent by operation count.
type AgentActivity struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AuditReport aggregates the operation ledger over a period.
type AuditReport struct {
	Period                 ReportPeriod              `json:"period"`
	TotalOperations        int                       `json:"total_operations"`
	ByType                 map[OperationType]int     `json:"by_type"`
	ByStatus               map[ExecutionStatus]int   `json:"by_status"`
	ByRiskLevel            map[RiskLevel]int         `json:"by_risk_level"`
	AverageConfidenceScore float64                   `json:"average_confidence_score"`
	PendingReviews         int                       `json:"pending_reviews"`
	Rollbacks              int                       `json:"rollbacks"`
	TopAgents              []AgentActivity           `json:"top_agents"`
}

// OperationStats summarizes activity over a trailing window of days.
type OperationStats struct {
	PeriodDays      int                     `json:"period_days"`
	TotalOperations int                     `json:"total_operations"`
	ByType          map[OperationType]int   `json:"by_type"`
	ByStatus        map[ExecutionStatus]int `json:"by_status"`
	SuccessRate     float64                 `json:"success_rate"` // percentage
}
