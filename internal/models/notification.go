package models

import "time"

// NotificationTypeReview marks a notification requesting human review.
const NotificationTypeReview = "human_review_required"

// ReviewNotification is emitted when an operation requires human review.
// Delivery is best-effort; a failed send never fails the audit write.
type ReviewNotification struct {
	Type          string        `json:"type"`
	LogID         string        `json:"log_id"`
	OperationType OperationType `json:"operation_type"`
	ContentTitle  string        `json:"content_title"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	AgentName     string        `json:"agent_name"`
	Timestamp     time.Time     `json:"timestamp"`
}
