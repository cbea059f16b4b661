package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"slideflow/internal/models"
)

type AutomationRepository interface {
	Create(ctx context.Context, a *models.Automation) error
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	List(ctx context.Context) ([]*models.Automation, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Automation, error)
	Update(ctx context.Context, a *models.Automation) error
	SetStatus(ctx context.Context, id, status string) error
	Remove(ctx context.Context, id string) error
}

type automationRepository struct {
	db *sql.DB
}

func NewAutomationRepository(db *sql.DB) AutomationRepository {
	return &automationRepository{db: db}
}

const automationColumns = `id, name, content_type, image_style, queue_mode, topics, project_ids,
	current_topic_index, current_project_index, schedule_times, schedule_days,
	tiktok_enabled, instagram_enabled, email_enabled, email_address, status,
	total_runs, successful_runs, failed_runs, created_at, updated_at`

func (r *automationRepository) Create(ctx context.Context, a *models.Automation) error {
	query := `
		INSERT INTO automations (id, name, content_type, image_style, queue_mode, topics, project_ids,
			schedule_times, schedule_days, tiktok_enabled, instagram_enabled, email_enabled, email_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.ContentType, a.ImageStyle, a.QueueMode,
		pq.Array(a.Topics), pq.Array(a.ProjectIDs),
		pq.Array(a.ScheduleTimes), pq.Array(a.ScheduleDays),
		a.TiktokEnabled, a.InstagramEnabled, a.EmailEnabled, a.EmailAddress, a.Status,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanAutomation(row interface{ Scan(...any) error }) (*models.Automation, error) {
	var a models.Automation
	err := row.Scan(
		&a.ID, &a.Name, &a.ContentType, &a.ImageStyle, &a.QueueMode,
		pq.Array(&a.Topics), pq.Array(&a.ProjectIDs),
		&a.CurrentTopicIndex, &a.CurrentProjectIndex,
		pq.Array(&a.ScheduleTimes), pq.Array(&a.ScheduleDays),
		&a.TiktokEnabled, &a.InstagramEnabled, &a.EmailEnabled, &a.EmailAddress, &a.Status,
		&a.TotalRuns, &a.SuccessfulRuns, &a.FailedRuns, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *automationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = $1`
	a, err := scanAutomation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return a, nil
}

func (r *automationRepository) List(ctx context.Context) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *automationRepository) ListByStatus(ctx context.Context, status string) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, status)
}

func (r *automationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var automations []*models.Automation
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		automations = append(automations, a)
	}
	return automations, rows.Err()
}

// Update writes the mutable fields of an automation, including the cursor and
// counters the run executor maintains.
func (r *automationRepository) Update(ctx context.Context, a *models.Automation) error {
	query := `
		UPDATE automations
		SET name = $2, content_type = $3, image_style = $4, queue_mode = $5,
			topics = $6, project_ids = $7, current_topic_index = $8, current_project_index = $9,
			schedule_times = $10, schedule_days = $11,
			tiktok_enabled = $12, instagram_enabled = $13, email_enabled = $14, email_address = $15,
			status = $16, total_runs = $17, successful_runs = $18, failed_runs = $19,
			updated_at = $20
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.ContentType, a.ImageStyle, a.QueueMode,
		pq.Array(a.Topics), pq.Array(a.ProjectIDs), a.CurrentTopicIndex, a.CurrentProjectIndex,
		pq.Array(a.ScheduleTimes), pq.Array(a.ScheduleDays),
		a.TiktokEnabled, a.InstagramEnabled, a.EmailEnabled, a.EmailAddress,
		a.Status, a.TotalRuns, a.SuccessfulRuns, a.FailedRuns,
		time.Now(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *automationRepository) SetStatus(ctx context.Context, id, status string) error {
	query := `UPDATE automations SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *automationRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM automations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
