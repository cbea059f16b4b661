package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"slideflow/internal/models"
)

type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id string) (*models.Run, error)
	ListByAutomationID(ctx context.Context, automationID string, limit int) ([]*models.Run, error)
	CountProcessing(ctx context.Context, automationID string) (int, error)
	UpdateStatus(ctx context.Context, id, status, errorMessage string) error
	UpdateResult(ctx context.Context, run *models.Run) error
	UpdatePlatformResult(ctx context.Context, run *models.Run) error
	RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type runRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepository{db: db}
}

const runColumns = `id, automation_id, topic, project_id, status, error_message, started_at,
	duration_seconds, slides_count, image_paths, narration_path,
	tiktok_posted, tiktok_post_status, tiktok_error,
	instagram_posted, instagram_post_status, instagram_error, created_at`

func (r *runRepository) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, automation_id, topic, project_id, status, started_at,
			tiktok_post_status, instagram_post_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.AutomationID, run.Topic, run.ProjectID, run.Status, run.StartedAt,
		run.TiktokPostStatus, run.InstagramPostStatus,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanRun(row interface{ Scan(...any) error }) (*models.Run, error) {
	var run models.Run
	err := row.Scan(
		&run.ID, &run.AutomationID, &run.Topic, &run.ProjectID, &run.Status, &run.ErrorMessage,
		&run.StartedAt, &run.DurationSeconds, &run.SlidesCount, pq.Array(&run.ImagePaths), &run.NarrationPath,
		&run.TiktokPosted, &run.TiktokPostStatus, &run.TiktokError,
		&run.InstagramPosted, &run.InstagramPostStatus, &run.InstagramError, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return run, nil
}

func (r *runRepository) ListByAutomationID(ctx context.Context, automationID string, limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE automation_id = $1 ORDER BY started_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, automationID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepository) CountProcessing(ctx context.Context, automationID string) (int, error) {
	query := `SELECT COUNT(*) FROM runs WHERE automation_id = $1 AND status = $2`
	var n int
	err := r.db.QueryRowContext(ctx, query, automationID, models.RunStatusProcessing).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

func (r *runRepository) UpdateStatus(ctx context.Context, id, status, errorMessage string) error {
	query := `UPDATE runs SET status = $2, error_message = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, errorMessage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateResult writes the content-generation outcome of a run.
func (r *runRepository) UpdateResult(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs
		SET status = $2, error_message = $3, duration_seconds = $4, slides_count = $5, image_paths = $6, narration_path = $7
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.ErrorMessage, run.DurationSeconds, run.SlidesCount, pq.Array(run.ImagePaths), run.NarrationPath,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdatePlatformResult writes the per-platform posting fields plus the
// aggregate run status. Only that run's row is touched, so one platform's
// update never clobbers the other's in-flight attempt fields beyond what the
// caller set on the model.
func (r *runRepository) UpdatePlatformResult(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs
		SET status = $2,
			tiktok_posted = $3, tiktok_post_status = $4, tiktok_error = $5,
			instagram_posted = $6, instagram_post_status = $7, instagram_error = $8
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status,
		run.TiktokPosted, run.TiktokPostStatus, run.TiktokError,
		run.InstagramPosted, run.InstagramPostStatus, run.InstagramError,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *runRepository) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM runs WHERE started_at < $1 AND status != $2`
	res, err := r.db.ExecContext(ctx, query, cutoff, models.RunStatusProcessing)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
