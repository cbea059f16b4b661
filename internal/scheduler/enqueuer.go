package scheduler

import (
	"github.com/hibiken/asynq"

	"slideflow/internal/queue"
)

// AsynqEnqueuer bridges the scheduler to the asynq-backed run queue.
type AsynqEnqueuer struct {
	Client *asynq.Client
}

func (e *AsynqEnqueuer) EnqueueRun(automationID string) error {
	return queue.EnqueueRun(e.Client, queue.RunTaskPayload{AutomationID: automationID})
}
