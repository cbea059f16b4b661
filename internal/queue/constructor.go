package queue

import (
	"slideflow/internal/repository"
	"slideflow/internal/service"
)

// Queue executes automation runs dispatched by the scheduler.
type Queue struct {
	ar     repository.AutomationRepository
	rr     repository.RunRepository
	pr     repository.ProjectRepository
	qm     service.QueueManager
	gen    service.Generator
	pd     service.PostDispatcher
	mailer service.Mailer
}

func NewQueue(
	ar repository.AutomationRepository,
	rr repository.RunRepository,
	pr repository.ProjectRepository,
	qm service.QueueManager,
	gen service.Generator,
	pd service.PostDispatcher,
	mailer service.Mailer) *Queue {
	return &Queue{
		ar:     ar,
		rr:     rr,
		pr:     pr,
		qm:     qm,
		gen:    gen,
		pd:     pd,
		mailer: mailer,
	}
}

const TaskTypeAutomationRun = "automation:run"

type RunTaskPayload struct {
	AutomationID string `json:"automation_id"`
}
