package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/promofarm/core-go/internal/model"
)

// RunReport is one archived fan-out run.
type RunReport struct {
	ID         string    `db:"id" json:"id"`
	Kind       string    `db:"kind" json:"kind"`
	Total      int       `db:"total" json:"total"`
	Succeeded  int       `db:"succeeded" json:"succeeded"`
	Failed     int       `db:"failed" json:"failed"`
	Skipped    int       `db:"skipped" json:"skipped"`
	Details    string    `db:"details" json:"details"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

type ReportRepository interface {
	Insert(ctx context.Context, report *RunReport) error
	FindByID(ctx context.Context, id string) (*RunReport, error)
	ListRecent(ctx context.Context, limit int) ([]RunReport, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type reportRepo struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Insert(ctx context.Context, report *RunReport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_reports (id, kind, total, succeeded, failed, skipped, details, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Kind, report.Total, report.Succeeded, report.Failed,
		report.Skipped, report.Details, report.StartedAt, report.FinishedAt)
	return err
}

func (r *reportRepo) FindByID(ctx context.Context, id string) (*RunReport, error) {
	var report RunReport
	err := r.db.GetContext(ctx, &report, `
		SELECT * FROM run_reports WHERE id = ?
	`, id)
	return handleNotFound(&report, err)
}

func (r *reportRepo) ListRecent(ctx context.Context, limit int) ([]RunReport, error) {
	var reports []RunReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM run_reports
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM run_reports WHERE finished_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// handleNotFound converts sql.ErrNoRows to a nil result without error, the
// usual contract for Find* operations.
func handleNotFound[T any](result *T, err error) (*T, error) {
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Recorder folds batch summaries into report rows. It satisfies the
// orchestrator's RunRecorder hook.
type Recorder struct {
	repo ReportRepository
}

func NewRecorder(repo ReportRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) RecordRun(ctx context.Context, kind string, summary model.BatchSummary, started, finished time.Time) error {
	details, err := json.Marshal(summary.FailureDetails)
	if err != nil {
		details = []byte("[]")
	}
	return r.repo.Insert(ctx, &RunReport{
		ID:         uuid.NewString(),
		Kind:       kind,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		Details:    string(details),
		StartedAt:  started,
		FinishedAt: finished,
	})
}
