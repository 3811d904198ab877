package ledger

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsboren/aivc/internal/models"
)

// newTestLedger creates a ledger in a temp directory for testing.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	l, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, l.Initialize())
	t.Cleanup(func() { l.Close() })
	return l
}

func testRecord(logID string, at time.Time) *models.OperationRecord {
	return &models.OperationRecord{
		LogID:             logID,
		Timestamp:         at,
		RequestID:         "req_" + logID,
		AgentID:           "agent-1",
		AgentName:         "Agent One",
		AgentType:         "internal",
		OperationType:     models.OperationCreate,
		ContentType:       "article",
		ContentID:         "c1",
		RiskLevel:         models.RiskLow,
		ApprovalStatus:    models.ApprovalAuto,
		RollbackAvailable: true,
		Status:            models.StatusSuccess,
	}
}

func TestLedger_AppendAndGet(t *testing.T) {
	l := newTestLedger(t)

	confidence := 0.92
	rec := testRecord("log_1", time.Now().UTC())
	rec.ContentTitle = "Hello"
	rec.AIModel = "gpt-4"
	rec.ConfidenceScore = &confidence
	rec.ProcessingTime = 1250
	rec.Metadata = map[string]any{"source": "pipeline"}

	require.NoError(t, l.Append(rec))

	got, err := l.Get("log_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "log_1", got.LogID)
	assert.Equal(t, "Agent One", got.AgentName)
	assert.Equal(t, models.OperationCreate, got.OperationType)
	assert.Equal(t, "Hello", got.ContentTitle)
	assert.Equal(t, "gpt-4", got.AIModel)
	require.NotNil(t, got.ConfidenceScore)
	assert.Equal(t, 0.92, *got.ConfidenceScore)
	assert.Equal(t, int64(1250), got.ProcessingTime)
	assert.True(t, got.RollbackAvailable)
	assert.Equal(t, "pipeline", got.Metadata["source"])
	assert.WithinDuration(t, rec.Timestamp, got.Timestamp, time.Millisecond)
}

func TestLedger_GetUnknown(t *testing.T) {
	l := newTestLedger(t)

	got, err := l.Get("log_missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedger_AppendDuplicateFails(t *testing.T) {
	l := newTestLedger(t)

	rec := testRecord("log_dup", time.Now().UTC())
	require.NoError(t, l.Append(rec))

	err := l.Append(rec)
	assert.Error(t, err)
}

func TestLedger_SetApproval(t *testing.T) {
	l := newTestLedger(t)

	rec := testRecord("log_1", time.Now().UTC())
	rec.ApprovalStatus = models.ApprovalPending
	require.NoError(t, l.Append(rec))

	decidedAt := time.Now().UTC()
	ok, err := l.SetApproval("log_1", models.ApprovalApproved, "alice", "looks good", decidedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := l.Get("log_1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, "alice", got.ApprovedBy)
	assert.Equal(t, "looks good", got.ApprovalComment)
	require.NotNil(t, got.ApprovedAt)
	assert.WithinDuration(t, decidedAt, *got.ApprovedAt, time.Millisecond)

	// Unknown record reports false without error.
	ok, err = l.SetApproval("log_missing", models.ApprovalApproved, "alice", "", decidedAt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedger_SetFailure(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Append(testRecord("log_1", time.Now().UTC())))

	ok, err := l.SetFailure("log_1", "something broke")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := l.Get("log_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "something broke", got.ErrorMessage)
}

func TestLedger_MarkRolledBack(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Append(testRecord("log_1", time.Now().UTC())))

	ok, err := l.MarkRolledBack("log_1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := l.Get("log_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRolledBack, got.Status)
}

func TestLedger_QueryFilters(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	r1 := testRecord("log_1", now.Add(-3*time.Hour))
	r2 := testRecord("log_2", now.Add(-2*time.Hour))
	r2.AgentID = "agent-2"
	r2.OperationType = models.OperationPublish
	r2.RiskLevel = models.RiskHigh
	r2.ApprovalStatus = models.ApprovalPending
	r3 := testRecord("log_3", now.Add(-1*time.Hour))
	r3.ContentID = "c2"
	r3.Status = models.StatusFailed

	for _, r := range []*models.OperationRecord{r1, r2, r3} {
		require.NoError(t, l.Append(r))
	}

	records, err := l.Query(&models.LogQuery{AgentID: "agent-2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "log_2", records[0].LogID)

	records, err = l.Query(&models.LogQuery{ContentID: "c2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "log_3", records[0].LogID)

	records, err = l.Query(&models.LogQuery{Status: models.StatusFailed})
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = l.Query(&models.LogQuery{RiskLevel: models.RiskHigh})
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = l.Query(&models.LogQuery{ApprovalStatus: models.ApprovalPending})
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Conjunctive: both filters must match.
	records, err = l.Query(&models.LogQuery{AgentID: "agent-2", Status: models.StatusFailed})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLedger_QueryOrderAndPagination(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		rec := testRecord(fmt.Sprintf("log_%d", i), now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, l.Append(rec))
	}

	// Newest first.
	records, err := l.Query(&models.LogQuery{})
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "log_4", records[0].LogID)
	assert.Equal(t, "log_0", records[4].LogID)

	// Page 2 of size 2 holds the third and fourth newest.
	records, err = l.Query(&models.LogQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "log_2", records[0].LogID)
	assert.Equal(t, "log_1", records[1].LogID)

	// Past the end is empty, not an error.
	records, err = l.Query(&models.LogQuery{Page: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLedger_QueryRange(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	for i := 0; i < 4; i++ {
		rec := testRecord(fmt.Sprintf("log_%d", i), now.Add(time.Duration(-i)*time.Hour))
		require.NoError(t, l.Append(rec))
	}

	start := now.Add(-150 * time.Minute)
	end := now.Add(-30 * time.Minute)
	records, err := l.QueryRange(&start, &end)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "log_1", records[0].LogID)
	assert.Equal(t, "log_2", records[1].LogID)

	// Open bounds return everything.
	records, err = l.QueryRange(nil, nil)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestLedger_PendingReviews(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	newer := testRecord("log_newer", now)
	newer.ApprovalStatus = models.ApprovalPending
	older := testRecord("log_older", now.Add(-time.Hour))
	older.ApprovalStatus = models.ApprovalPending
	auto := testRecord("log_auto", now.Add(-30*time.Minute))

	for _, r := range []*models.OperationRecord{newer, older, auto} {
		require.NoError(t, l.Append(r))
	}

	records, err := l.PendingReviews()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Oldest first so the longest-waiting record surfaces at the top.
	assert.Equal(t, "log_older", records[0].LogID)
	assert.Equal(t, "log_newer", records[1].LogID)
}
