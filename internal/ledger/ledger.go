// Package ledger provides SQLite-based persistence for the operation
// ledger: an append-mostly collection of operation records keyed by log ID.
// Appended fields are write-once; only the execution status, the approval
// decision, and the error message may change afterwards.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomsboren/aivc/internal/models"
)

// timeLayout is fixed-width so stored timestamps order lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Ledger is the SQLite-backed operation record store.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at the given path.
// The path ":memory:" opens a private in-memory database.
func Open(path string) (*Ledger, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Initialize creates the ledger schema.
func (l *Ledger) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operation_records (
		log_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		request_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		operation_type TEXT NOT NULL,
		content_type TEXT NOT NULL,
		content_id TEXT,
		content_title TEXT,
		input_hash TEXT,
		output_hash TEXT,
		ai_model TEXT,
		confidence_score REAL,
		quality_score REAL,
		processing_time INTEGER NOT NULL DEFAULT 0,
		risk_level TEXT NOT NULL,
		approval_status TEXT NOT NULL,
		approved_by TEXT,
		approval_comment TEXT,
		approved_at TEXT,
		requires_human_review BOOLEAN NOT NULL DEFAULT FALSE,
		rollback_available BOOLEAN NOT NULL DEFAULT TRUE,
		status TEXT NOT NULL,
		error_message TEXT,
		error_code TEXT,
		metadata JSON
	);

	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON operation_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_records_agent ON operation_records(agent_id);
	CREATE INDEX IF NOT EXISTS idx_records_content ON operation_records(content_id);
	CREATE INDEX IF NOT EXISTS idx_records_approval ON operation_records(approval_status);
	`

	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// Append inserts a new operation record. Log IDs are never reused; an
// insert with an existing ID fails.
func (l *Ledger) Append(rec *models.OperationRecord) error {
	var metadata any
	if rec.Metadata != nil {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	var approvedAt any
	if rec.ApprovedAt != nil {
		approvedAt = rec.ApprovedAt.UTC().Format(timeLayout)
	}

	_, err := l.db.Exec(`
		INSERT INTO operation_records (
			log_id, timestamp, request_id,
			agent_id, agent_name, agent_type,
			operation_type, content_type, content_id, content_title,
			input_hash, output_hash,
			ai_model, confidence_score, quality_score, processing_time,
			risk_level, approval_status, approved_by, approval_comment, approved_at,
			requires_human_review, rollback_available,
			status, error_message, error_code, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.LogID, rec.Timestamp.UTC().Format(timeLayout), rec.RequestID,
		rec.AgentID, rec.AgentName, rec.AgentType,
		string(rec.OperationType), rec.ContentType, rec.ContentID, rec.ContentTitle,
		rec.InputHash, rec.OutputHash,
		rec.AIModel, nullFloat(rec.ConfidenceScore), nullFloat(rec.QualityScore), rec.ProcessingTime,
		string(rec.RiskLevel), string(rec.ApprovalStatus), rec.ApprovedBy, rec.ApprovalComment, approvedAt,
		rec.RequiresHumanReview, rec.RollbackAvailable,
		string(rec.Status), rec.ErrorMessage, rec.ErrorCode, metadata,
	)
	if err != nil {
		return fmt.Errorf("append operation record: %w", err)
	}
	return nil
}

// Get retrieves a record by log ID. Returns (nil, nil) if not found.
func (l *Ledger) Get(logID string) (*models.OperationRecord, error) {
	row := l.db.QueryRow(selectColumns+" FROM operation_records WHERE log_id = ?", logID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operation record: %w", err)
	}
	return rec, nil
}

// SetApproval records a review decision on an existing record. Re-deciding
// an already-decided record overwrites the decision metadata. Returns false
// if the record does not exist.
func (l *Ledger) SetApproval(logID string, status models.ApprovalStatus, approver, comment string, at time.Time) (bool, error) {
	res, err := l.db.Exec(`
		UPDATE operation_records
		SET approval_status = ?, approved_by = ?, approval_comment = ?, approved_at = ?
		WHERE log_id = ?`,
		string(status), approver, comment, at.UTC().Format(timeLayout), logID,
	)
	if err != nil {
		return false, fmt.Errorf("set approval: %w", err)
	}
	return affected(res)
}

// SetFailure marks a record failed with the given error message.
func (l *Ledger) SetFailure(logID, message string) (bool, error) {
	res, err := l.db.Exec(`
		UPDATE operation_records SET status = ?, error_message = ? WHERE log_id = ?`,
		string(models.StatusFailed), message, logID,
	)
	if err != nil {
		return false, fmt.Errorf("set failure: %w", err)
	}
	return affected(res)
}

// MarkRolledBack flips a record's status to rolled-back. This is the one
// permitted post-hoc status mutation outside the approval decision.
func (l *Ledger) MarkRolledBack(logID string) (bool, error) {
	res, err := l.db.Exec(`
		UPDATE operation_records SET status = ? WHERE log_id = ?`,
		string(models.StatusRolledBack), logID,
	)
	if err != nil {
		return false, fmt.Errorf("mark rolled back: %w", err)
	}
	return affected(res)
}

// Query returns one page of records matching the conjunctive filter,
// ordered by timestamp descending.
func (l *Ledger) Query(q *models.LogQuery) ([]*models.OperationRecord, error) {
	where, args := buildFilters(q)

	limit := q.Limit
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	query := selectColumns + " FROM operation_records" + where +
		" ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	return l.queryRecords(query, args...)
}

// QueryRange returns all records in the given time range without
// pagination, ordered by timestamp descending. Nil bounds are open.
func (l *Ledger) QueryRange(start, end *time.Time) ([]*models.OperationRecord, error) {
	var conds []string
	var args []any
	if start != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, start.UTC().Format(timeLayout))
	}
	if end != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, end.UTC().Format(timeLayout))
	}

	query := selectColumns + " FROM operation_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	return l.queryRecords(query, args...)
}

// PendingReviews returns all records awaiting review, oldest first.
func (l *Ledger) PendingReviews() ([]*models.OperationRecord, error) {
	query := selectColumns + " FROM operation_records WHERE approval_status = ? ORDER BY timestamp ASC"
	return l.queryRecords(query, string(models.ApprovalPending))
}

func (l *Ledger) queryRecords(query string, args ...any) ([]*models.OperationRecord, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operation records: %w", err)
	}
	defer rows.Close()

	var records []*models.OperationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func buildFilters(q *models.LogQuery) (string, []any) {
	var conds []string
	var args []any

	if q.AgentID != "" {
		conds = append(conds, "agent_id = ?")
		args = append(args, q.AgentID)
	}
	if q.ContentID != "" {
		conds = append(conds, "content_id = ?")
		args = append(args, q.ContentID)
	}
	if q.OperationType != "" {
		conds = append(conds, "operation_type = ?")
		args = append(args, string(q.OperationType))
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.RiskLevel != "" {
		conds = append(conds, "risk_level = ?")
		args = append(args, string(q.RiskLevel))
	}
	if q.ApprovalStatus != "" {
		conds = append(conds, "approval_status = ?")
		args = append(args, string(q.ApprovalStatus))
	}
	if q.StartDate != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, q.StartDate.UTC().Format(timeLayout))
	}
	if q.EndDate != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, q.EndDate.UTC().Format(timeLayout))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const selectColumns = `SELECT log_id, timestamp, request_id,
	agent_id, agent_name, agent_type,
	operation_type, content_type, content_id, content_title,
	input_hash, output_hash,
	ai_model, confidence_score, quality_score, processing_time,
	risk_level, approval_status, approved_by, approval_comment, approved_at,
	requires_human_review, rollback_available,
	status, error_message, error_code, metadata`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.OperationRecord, error) {
	var rec models.OperationRecord
	var timestamp string
	var contentID, contentTitle, inputHash, outputHash sql.NullString
	var aiModel, approvedBy, approvalComment, approvedAt sql.NullString
	var errorMessage, errorCode, metadata sql.NullString
	var confidence, quality sql.NullFloat64
	var opType, riskLevel, approvalStatus, status string

	err := row.Scan(
		&rec.LogID, &timestamp, &rec.RequestID,
		&rec.AgentID, &rec.AgentName, &rec.AgentType,
		&opType, &rec.ContentType, &contentID, &contentTitle,
		&inputHash, &outputHash,
		&aiModel, &confidence, &quality, &rec.ProcessingTime,
		&riskLevel, &approvalStatus, &approvedBy, &approvalComment, &approvedAt,
		&rec.RequiresHumanReview, &rec.RollbackAvailable,
		&status, &errorMessage, &errorCode, &metadata,
	)
	if err != nil {
		return nil, err
	}

	rec.Timestamp = parseTimestamp(timestamp)
	rec.OperationType = models.OperationType(opType)
	rec.RiskLevel = models.RiskLevel(riskLevel)
	rec.ApprovalStatus = models.ApprovalStatus(approvalStatus)
	rec.Status = models.ExecutionStatus(status)
	rec.ContentID = contentID.String
	rec.ContentTitle = contentTitle.String
	rec.InputHash = inputHash.String
	rec.OutputHash = outputHash.String
	rec.AIModel = aiModel.String
	rec.ApprovedBy = approvedBy.String
	rec.ApprovalComment = approvalComment.String
	rec.ErrorMessage = errorMessage.String
	rec.ErrorCode = errorCode.String

	if confidence.Valid {
		v := confidence.Float64
		rec.ConfidenceScore = &v
	}
	if quality.Valid {
		v := quality.Float64
		rec.QualityScore = &v
	}
	if approvedAt.Valid && approvedAt.String != "" {
		t := parseTimestamp(approvedAt.String)
		rec.ApprovedAt = &t
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &rec, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// parseTimestamp parses a stored timestamp in the formats the ledger has
// written over time.
func parseTimestamp(s string) time.Time {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
