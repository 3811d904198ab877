// Package risk maps operation types to risk levels and decides whether an
// operation must be gated behind human review.
package risk

import "github.com/tomsboren/aivc/internal/models"

var levels = map[models.OperationType]models.RiskLevel{
	models.OperationCreate:    models.RiskLow,
	models.OperationUpdate:    models.RiskMedium,
	models.OperationDelete:    models.RiskCritical,
	models.OperationPublish:   models.RiskHigh,
	models.OperationUnpublish: models.RiskHigh,
	models.OperationAnalyze:   models.RiskLow,
	models.OperationGenerate:  models.RiskMedium,
	models.OperationApprove:   models.RiskMedium,
	models.OperationReject:    models.RiskLow,
	models.OperationRollback:  models.RiskMedium,
}

// Level returns the risk level for an operation type. Unrecognized
// operation types default to medium.
func Level(op models.OperationType) models.RiskLevel {
	if level, ok := levels[op]; ok {
		return level
	}
	return models.RiskMedium
}

// RequiresReview reports whether operations at the given risk level must be
// held pending until a reviewer acts.
func RequiresReview(level models.RiskLevel) bool {
	return level == models.RiskHigh || level == models.RiskCritical
}
