package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// EnqueueRun hands an automation to the executor. MaxRetry is zero on
// purpose: a failed run is recorded on its Run row and waits for a human, it
// is never replayed by the queue.
func EnqueueRun(asynqClient *asynq.Client, payload RunTaskPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeAutomationRun, taskPayload)

	if _, err := asynqClient.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("run task enqueued for automation %s", payload.AutomationID))
	return nil
}
