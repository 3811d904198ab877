// Package audit implements the approval workflow and rollback coordination
// over the operation ledger: every automated operation is risk-classified,
// durably recorded, and optionally held pending human review. Rollback is
// compensating: it appends a reversing record and flips the original's
// status instead of erasing history.
package audit

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomsboren/aivc/internal/digest"
	"github.com/tomsboren/aivc/internal/ledger"
	"github.com/tomsboren/aivc/internal/models"
	"github.com/tomsboren/aivc/internal/risk"
)

// Service coordinates record creation, review decisions, and rollbacks
// against one shared ledger. Construct one instance per process with
// NewService and pass it by handle.
type Service struct {
	ledger   *ledger.Ledger
	notifier Notifier
	logger   *zap.Logger
	validate *validator.Validate

	// updateMu serializes the mutable-field updates (approve, reject,
	// rollback) so racing decisions on the same record cannot lose writes.
	updateMu sync.Mutex
}

// NewService creates an audit service. A nil notifier falls back to
// logging review notifications.
func NewService(l *ledger.Ledger, n Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = &LogNotifier{Logger: logger}
	}
	return &Service{
		ledger:   l,
		notifier: n,
		logger:   logger,
		validate: validator.New(),
	}
}

// LogOperation finalizes and appends one operation record. Absent optional
// fields receive defaults; risk is derived from the operation type unless
// supplied, and high or critical risk forces the record into pending review
// regardless of caller input. Review notifications are best-effort and
// never fail the write.
func (s *Service) LogOperation(input *models.OperationInput) (*models.OperationRecord, error) {
	if input == nil {
		input = &models.OperationInput{}
	}

	now := time.Now().UTC()
	rec := &models.OperationRecord{
		LogID:     "log_" + uuid.NewString(),
		Timestamp: now,
		RequestID: "req_" + uuid.NewString(),

		AgentID:   orDefault(input.AgentID, "unknown"),
		AgentName: orDefault(input.AgentName, "Unknown Agent"),
		AgentType: orDefault(input.AgentType, "internal"),

		OperationType: input.OperationType,
		ContentType:   orDefault(input.ContentType, "article"),
		ContentID:     input.ContentID,
		ContentTitle:  input.ContentTitle,

		AIModel:         input.AIModel,
		ConfidenceScore: input.ConfidenceScore,
		QualityScore:    input.QualityScore,
		ProcessingTime:  input.ProcessingTime,

		RiskLevel:         input.RiskLevel,
		ApprovalStatus:    models.ApprovalAuto,
		RollbackAvailable: true,

		Status:       input.Status,
		ErrorMessage: input.ErrorMessage,
		ErrorCode:    input.ErrorCode,
		Metadata:     input.Metadata,
	}

	if rec.OperationType == "" {
		rec.OperationType = models.OperationCreate
	}
	if rec.RiskLevel == "" {
		rec.RiskLevel = risk.Level(rec.OperationType)
	}
	if rec.Status == "" {
		rec.Status = models.StatusSuccess
	}
	if input.RollbackAvailable != nil {
		rec.RollbackAvailable = *input.RollbackAvailable
	}

	if risk.RequiresReview(rec.RiskLevel) {
		rec.ApprovalStatus = models.ApprovalPending
		rec.RequiresHumanReview = true
	}

	rec.InputHash = digest.Hash(input)
	rec.OutputHash = digest.Hash(rec)

	if err := s.ledger.Append(rec); err != nil {
		return nil, err
	}

	if rec.RequiresHumanReview {
		notification := &models.ReviewNotification{
			Type:          models.NotificationTypeReview,
			LogID:         rec.LogID,
			OperationType: rec.OperationType,
			ContentTitle:  rec.ContentTitle,
			RiskLevel:     rec.RiskLevel,
			AgentName:     rec.AgentName,
			Timestamp:     rec.Timestamp,
		}
		if err := s.notifier.Notify(notification); err != nil {
			s.logger.Warn("review notification failed",
				zap.String("log_id", rec.LogID),
				zap.Error(err))
		}
	}

	return rec, nil
}

// ApproveOperation records an approval decision. Returns false if the log
// ID is unknown. Re-approving an already-approved record overwrites the
// decision metadata.
func (s *Service) ApproveOperation(logID, approver, comment string) (bool, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	return s.ledger.SetApproval(logID, models.ApprovalApproved, approver, comment, time.Now().UTC())
}

// RejectOperation records a rejection: the record is marked rejected and
// failed, with a synthesized error message. Returns false if the log ID is
// unknown.
func (s *Service) RejectOperation(logID, approver, comment string) (bool, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	ok, err := s.ledger.SetApproval(logID, models.ApprovalRejected, approver, comment, time.Now().UTC())
	if err != nil || !ok {
		return ok, err
	}
	if _, err := s.ledger.SetFailure(logID, fmt.Sprintf("Rejected by %s: %s", approver, comment)); err != nil {
		return false, err
	}
	return true, nil
}

// Rollback neutralizes a prior operation without deleting it. The original
// record's status flips to rolled-back and a compensating record is
// appended. Returns false without any state change when the record is
// unknown or not eligible for rollback.
func (s *Service) Rollback(logID, reason, requestedBy string) (bool, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	original, err := s.ledger.Get(logID)
	if err != nil {
		return false, err
	}
	if original == nil || !original.RollbackAvailable {
		return false, nil
	}

	if _, err := s.ledger.MarkRolledBack(logID); err != nil {
		return false, err
	}

	compensating := *original
	compensating.LogID = "log_" + uuid.NewString()
	compensating.Timestamp = time.Now().UTC()
	compensating.OperationType = models.OperationRollback
	compensating.Status = models.StatusSuccess
	compensating.ApprovalStatus = models.ApprovalAuto
	compensating.RequiresHumanReview = false
	compensating.ApprovedBy = ""
	compensating.ApprovalComment = ""
	compensating.ApprovedAt = nil

	metadata := make(map[string]any, len(original.Metadata)+3)
	for k, v := range original.Metadata {
		metadata[k] = v
	}
	metadata["rollbackOf"] = logID
	metadata["rollbackReason"] = reason
	metadata["rollbackBy"] = requestedBy
	compensating.Metadata = metadata

	if err := s.ledger.Append(&compensating); err != nil {
		return false, err
	}

	s.logger.Info("operation rolled back",
		zap.String("log_id", logID),
		zap.String("rollback_log_id", compensating.LogID),
		zap.String("requested_by", requestedBy))

	return true, nil
}

// QueryLogs returns one page of records matching the filter, newest first.
func (s *Service) QueryLogs(q *models.LogQuery) ([]*models.OperationRecord, error) {
	if q == nil {
		q = &models.LogQuery{}
	}
	if err := s.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return s.ledger.Query(q)
}

// GetRecord looks up one record by log ID. Returns (nil, nil) if unknown.
func (s *Service) GetRecord(logID string) (*models.OperationRecord, error) {
	return s.ledger.Get(logID)
}

// GetPendingReviews lists all records awaiting human review, oldest first.
func (s *Service) GetPendingReviews() ([]*models.OperationRecord, error) {
	return s.ledger.PendingReviews()
}

// GenerateAuditReport aggregates the ledger over the given period.
func (s *Service) GenerateAuditReport(start, end time.Time) (*models.AuditReport, error) {
	records, err := s.ledger.QueryRange(&start, &end)
	if err != nil {
		return nil, err
	}

	report := &models.AuditReport{
		Period:          models.ReportPeriod{StartDate: start, EndDate: end},
		TotalOperations: len(records),
		ByType:          make(map[models.OperationType]int),
		ByStatus:        make(map[models.ExecutionStatus]int),
		ByRiskLevel:     make(map[models.RiskLevel]int),
	}

	agentCounts := make(map[string]int)
	var totalConfidence float64
	var confidenceCount int

	for _, rec := range records {
		report.ByType[rec.OperationType]++
		report.ByStatus[rec.Status]++
		report.ByRiskLevel[rec.RiskLevel]++
		agentCounts[rec.AgentName]++

		if rec.ConfidenceScore != nil {
			totalConfidence += *rec.ConfidenceScore
			confidenceCount++
		}
		if rec.ApprovalStatus == models.ApprovalPending {
			report.PendingReviews++
		}
		if rec.Status == models.StatusRolledBack {
			report.Rollbacks++
		}
	}

	if confidenceCount > 0 {
		report.AverageConfidenceScore = round2(totalConfidence / float64(confidenceCount))
	}

	report.TopAgents = topAgents(agentCounts, 10)
	return report, nil
}

// OperationStats summarizes activity over a trailing window of days.
func (s *Service) OperationStats(days int) (*models.OperationStats, error) {
	if days <= 0 {
		days = 7
	}
	start := time.Now().UTC().AddDate(0, 0, -days)

	records, err := s.ledger.QueryRange(&start, nil)
	if err != nil {
		return nil, err
	}

	stats := &models.OperationStats{
		PeriodDays:      days,
		TotalOperations: len(records),
		ByType:          make(map[models.OperationType]int),
		ByStatus:        make(map[models.ExecutionStatus]int),
	}

	var succeeded int
	for _, rec := range records {
		stats.ByType[rec.OperationType]++
		stats.ByStatus[rec.Status]++
		if rec.Status == models.StatusSuccess {
			succeeded++
		}
	}
	if len(records) > 0 {
		stats.SuccessRate = round2(float64(succeeded) / float64(len(records)) * 100)
	}

	return stats, nil
}

func topAgents(counts map[string]int, limit int) []models.AgentActivity {
	ranked := make([]models.AgentActivity, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, models.AgentActivity{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
