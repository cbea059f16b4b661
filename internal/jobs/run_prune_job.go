package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slideflow/internal/repository"
)

// RunPruneJob deletes old run history past the retention window. Processing
// runs are never pruned.
type RunPruneJob struct {
	rr            repository.RunRepository
	retentionDays int
}

func NewRunPruneJob(rr repository.RunRepository, retentionDays int) *RunPruneJob {
	return &RunPruneJob{rr: rr, retentionDays: retentionDays}
}

func (c *RunPruneJob) Prune() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -c.retentionDays)
	n, err := c.rr.RemoveOlderThan(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if n > 0 {
		slog.Info(fmt.Sprintf("pruned %d runs older than %s", n, cutoff.Format(time.DateOnly)))
	}
}
