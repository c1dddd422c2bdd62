package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReportRepository_InsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db.DB)
	ctx := context.Background()

	report := &RunReport{
		ID:         "r1",
		Kind:       "owner:attendance",
		Total:      5,
		Succeeded:  4,
		Failed:     1,
		Skipped:    0,
		Details:    `["owner1/3: timeout"]`,
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}
	require.NoError(t, repo.Insert(ctx, report))

	got, err := repo.FindByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owner:attendance", got.Kind)
	assert.Equal(t, 4, got.Succeeded)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReportRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db.DB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &RunReport{
			ID:         string(rune('a' + i)),
			Kind:       "farm",
			Details:    "[]",
			StartedAt:  base,
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	reports, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "c", reports[0].ID, "newest first")
	assert.Equal(t, "b", reports[1].ID)
}

func TestReportRepository_DeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db.DB)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Insert(ctx, &RunReport{ID: "old", Kind: "farm", Details: "[]", StartedAt: old, FinishedAt: old}))
	require.NoError(t, repo.Insert(ctx, &RunReport{ID: "new", Kind: "farm", Details: "[]", StartedAt: time.Now(), FinishedAt: time.Now()}))

	n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	kept, err := repo.FindByID(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestRecorder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db.DB)
	rec := NewRecorder(repo)

	var summary model.BatchSummary
	summary.Add(model.ActionResult{Owner: "o", UID: "1", Outcome: model.OutcomeSuccess}, 10)
	summary.Add(model.ActionResult{Owner: "o", UID: "2", Outcome: model.OutcomeRecoverable, Message: "boom"}, 10)

	started := time.Now().Add(-time.Second)
	require.NoError(t, rec.RecordRun(context.Background(), "owner:test", summary, started, time.Now()))

	reports, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Total)
	assert.Equal(t, 1, reports[0].Failed)
	assert.Contains(t, reports[0].Details, "o/2: boom")
}
