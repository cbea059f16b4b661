package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"slideflow/internal/models"
	"slideflow/internal/service"
	"slideflow/internal/telemetry"
)

func (j *Queue) HandleRunTask(ctx context.Context, task *asynq.Task) error {
	var payload RunTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// Execution errors are recorded on the Run row; returning nil keeps
	// asynq from replaying the task.
	if err := j.ExecuteRun(ctx, payload.AutomationID); err != nil {
		slog.Info(fmt.Sprintf("run for automation %s aborted: %v", payload.AutomationID, err))
	}
	return nil
}

// ExecuteRun drives one full attempt for an automation: claim the next queue
// item, generate content, record the Run, attempt the configured platform
// posts, then advance the cursor and counters. The cursor advances exactly
// once per attempt whether or not generation succeeded.
func (j *Queue) ExecuteRun(ctx context.Context, automationID string) error {
	a, err := j.ar.GetByID(ctx, automationID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("automation %s not found", automationID)
	}
	if a.Status != models.AutomationStatusRunning {
		// Stopped between enqueue and execution; a stop gates future
		// work, so the task is dropped.
		return nil
	}

	// One processing run per automation. The scheduler checks this too,
	// but the re-check here closes the enqueue/execute window.
	processing, err := j.rr.CountProcessing(ctx, automationID)
	if err != nil {
		return err
	}
	if processing > 0 {
		telemetry.DueSkippedBusy.Inc()
		return nil
	}

	item, err := j.qm.Peek(ctx, a)
	if err != nil {
		return err
	}
	if item == nil {
		telemetry.DueSkippedExhausted.Inc()
		return nil
	}

	run := &models.Run{
		ID:                  uuid.New().String(),
		AutomationID:        a.ID,
		Topic:               item.Title,
		Status:              models.RunStatusPending,
		StartedAt:           time.Now(),
		TiktokPostStatus:    models.TiktokPostNone,
		InstagramPostStatus: models.InstagramPostNone,
	}
	if item.Type == "project" {
		run.ProjectID = item.ID
	}
	if a.TiktokEnabled {
		run.TiktokPostStatus = models.TiktokPostPending
	}
	if a.InstagramEnabled {
		run.InstagramPostStatus = models.InstagramPostPending
	}

	if err := j.rr.Create(ctx, run); err != nil {
		return err
	}

	if err := j.rr.UpdateStatus(ctx, run.ID, models.RunStatusProcessing, ""); err != nil {
		return err
	}
	run.Status = models.RunStatusProcessing
	telemetry.RunsDispatched.Inc()
	telemetry.RunsInFlight.Inc()
	defer telemetry.RunsInFlight.Dec()

	spec := service.GenerationSpec{
		Topic:       item.Title,
		ContentType: a.ContentType,
		ImageStyle:  a.ImageStyle,
	}
	if run.ProjectID != "" {
		project, err := j.pr.GetByID(ctx, run.ProjectID)
		if err == nil && project != nil && project.Script != "" {
			spec.Script = project.Script
		}
	}

	started := time.Now()
	result, genErr := j.gen.GenerateContent(ctx, spec)
	run.DurationSeconds = int(time.Since(started) / time.Second)

	// Counters and cursor move exactly once per attempt, before the
	// posting phase. A failed topic is consumed, not retried.
	a.TotalRuns++
	if genErr != nil {
		a.FailedRuns++
	} else {
		a.SuccessfulRuns++
	}
	if err := j.qm.Advance(ctx, a); err != nil {
		slog.Info(fmt.Sprintf("advancing queue for automation %s failed: %v", a.ID, err))
	}

	if genErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = genErr.Error()
		telemetry.RunsFailed.Inc()
		if err := j.rr.UpdateResult(ctx, run); err != nil {
			return err
		}
		j.notify(a, run)
		return nil
	}

	run.Status = models.RunStatusCompleted
	run.SlidesCount = len(result.Slides)
	run.ImagePaths = result.ImagePaths
	run.NarrationPath = result.NarrationPath
	run.ErrorMessage = ""
	telemetry.RunsSucceeded.Inc()
	if err := j.rr.UpdateResult(ctx, run); err != nil {
		return err
	}

	if platform := autoPostTarget(a); platform != "" {
		if _, err := j.pd.PostNow(ctx, run, platform); err != nil {
			// Validation failures (e.g. a one-slide run) leave the
			// run completed and untouched; the operator retries by
			// hand once there is something postable.
			slog.Info(fmt.Sprintf("auto-post for run %s rejected: %v", run.ID, err))
		}
	}

	j.notify(a, run)
	return nil
}

func autoPostTarget(a *models.Automation) string {
	switch {
	case a.TiktokEnabled && a.InstagramEnabled:
		return models.PlatformBoth
	case a.TiktokEnabled:
		return models.PlatformTiktok
	case a.InstagramEnabled:
		return models.PlatformInstagram
	default:
		return ""
	}
}

func (j *Queue) notify(a *models.Automation, run *models.Run) {
	if !a.EmailEnabled || a.EmailAddress == "" {
		return
	}
	if err := j.mailer.SendRunReport(a.EmailAddress, a, run); err != nil {
		slog.Info(fmt.Sprintf("run report email for %s failed: %v", run.ID, err))
	}
}
