package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/transfer"
)

var (
	ErrQueueExhausted  = errors.New("queue is exhausted")
	ErrProjectQueue    = errors.New("cannot edit topics on a project-mode queue")
	ErrTopicOutOfRange = errors.New("topic index out of range")
	ErrEmptyTopic      = errors.New("topic must not be empty")
)

// QueueManager tracks each automation's position in its topic or project
// backlog. The cursor only moves forward during execution: Advance consumes
// one slot per dispatched run whether or not the run succeeded, and Skip
// consumes one without creating a run.
type QueueManager interface {
	Peek(ctx context.Context, a *models.Automation) (*transfer.QueueItem, error)
	Advance(ctx context.Context, a *models.Automation) error
	Skip(ctx context.Context, a *models.Automation) error
	AddTopic(ctx context.Context, a *models.Automation, topic string) error
	RemoveTopic(ctx context.Context, a *models.Automation, index int) error
	Projection(ctx context.Context, a *models.Automation) (*transfer.QueueProjection, error)
}

type queueManager struct {
	ar repository.AutomationRepository
	pr repository.ProjectRepository
}

func NewQueueManager(ar repository.AutomationRepository, pr repository.ProjectRepository) QueueManager {
	return &queueManager{ar: ar, pr: pr}
}

func (q *queueManager) itemAt(ctx context.Context, a *models.Automation, index int) (*transfer.QueueItem, error) {
	item := &transfer.QueueItem{Index: index}

	switch a.QueueMode {
	case models.QueueModeProjects:
		item.Type = "project"
		item.ID = a.ProjectIDs[index]
		project, err := q.pr.GetByID(ctx, a.ProjectIDs[index])
		if err != nil {
			return nil, err
		}
		if project != nil {
			item.Title = project.Topic
		} else {
			item.Title = a.ProjectIDs[index]
		}
	default:
		item.Type = "topic"
		item.Title = a.Topics[index]
	}

	cursor := a.Cursor()
	switch {
	case index < cursor:
		item.Status = transfer.QueueItemCompleted
	case index == cursor:
		item.Status = transfer.QueueItemCurrent
	default:
		item.Status = transfer.QueueItemPending
	}

	return item, nil
}

// Peek returns the item under the cursor, or nil when the queue is exhausted.
func (q *queueManager) Peek(ctx context.Context, a *models.Automation) (*transfer.QueueItem, error) {
	if a.IsExhausted() {
		return nil, nil
	}
	return q.itemAt(ctx, a, a.Cursor())
}

func (q *queueManager) Advance(ctx context.Context, a *models.Automation) error {
	if a.IsExhausted() {
		return ErrQueueExhausted
	}
	a.SetCursor(a.Cursor() + 1)
	return q.ar.Update(ctx, a)
}

// Skip consumes the current slot without a run. A no-op error on an exhausted
// queue keeps repeated skips capped at the queue length.
func (q *queueManager) Skip(ctx context.Context, a *models.Automation) error {
	if a.IsExhausted() {
		return ErrQueueExhausted
	}
	a.SetCursor(a.Cursor() + 1)
	if err := q.ar.Update(ctx, a); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("skipped queue item for automation %s, cursor now %d", a.ID, a.Cursor()))
	return nil
}

func (q *queueManager) AddTopic(ctx context.Context, a *models.Automation, topic string) error {
	if a.QueueMode == models.QueueModeProjects {
		return ErrProjectQueue
	}
	if topic == "" {
		return ErrEmptyTopic
	}
	a.Topics = append(a.Topics, topic)
	return q.ar.Update(ctx, a)
}

// RemoveTopic deletes the topic at index. Removing an already-consumed topic
// pulls the cursor back by one so it keeps pointing at the same logical next
// item; removing the current topic promotes its successor in place.
func (q *queueManager) RemoveTopic(ctx context.Context, a *models.Automation, index int) error {
	if a.QueueMode == models.QueueModeProjects {
		return ErrProjectQueue
	}
	if index < 0 || index >= len(a.Topics) {
		return ErrTopicOutOfRange
	}

	a.Topics = append(a.Topics[:index], a.Topics[index+1:]...)
	if index < a.CurrentTopicIndex {
		a.CurrentTopicIndex--
	}
	return q.ar.Update(ctx, a)
}

func (q *queueManager) Projection(ctx context.Context, a *models.Automation) (*transfer.QueueProjection, error) {
	length := a.QueueLength()
	items := make([]transfer.QueueItem, 0, length)
	for i := 0; i < length; i++ {
		item, err := q.itemAt(ctx, a, i)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return &transfer.QueueProjection{
		QueueMode:    a.QueueMode,
		Items:        items,
		TotalItems:   length,
		CurrentIndex: a.Cursor(),
		Remaining:    length - a.Cursor(),
		IsExhausted:  a.IsExhausted(),
	}, nil
}
