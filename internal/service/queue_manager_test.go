package service

import (
	"context"
	"errors"
	"testing"

	"slideflow/internal/models"
	"slideflow/internal/transfer"
)

type fakeAutomationRepo struct {
	byID    map[string]*models.Automation
	updates int
}

func newFakeAutomationRepo(automations ...*models.Automation) *fakeAutomationRepo {
	r := &fakeAutomationRepo{byID: make(map[string]*models.Automation)}
	for _, a := range automations {
		r.byID[a.ID] = a
	}
	return r
}

func (r *fakeAutomationRepo) Create(ctx context.Context, a *models.Automation) error {
	r.byID[a.ID] = a
	return nil
}

func (r *fakeAutomationRepo) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	return r.byID[id], nil
}

func (r *fakeAutomationRepo) List(ctx context.Context) ([]*models.Automation, error) {
	out := make([]*models.Automation, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAutomationRepo) ListByStatus(ctx context.Context, status string) ([]*models.Automation, error) {
	var out []*models.Automation
	for _, a := range r.byID {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAutomationRepo) Update(ctx context.Context, a *models.Automation) error {
	r.byID[a.ID] = a
	r.updates++
	return nil
}

func (r *fakeAutomationRepo) SetStatus(ctx context.Context, id, status string) error {
	if a, ok := r.byID[id]; ok {
		a.Status = status
	}
	return nil
}

func (r *fakeAutomationRepo) Remove(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type fakeProjectRepo struct {
	byID map[string]*models.Project
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	r.byID[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.byID[id], nil
}

func (r *fakeProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	out := make([]*models.Project, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, p *models.Project) error {
	r.byID[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) Remove(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func topicAutomation(topics ...string) *models.Automation {
	return &models.Automation{
		ID:        "a1",
		Name:      "daily stoicism",
		QueueMode: models.QueueModeTopics,
		Topics:    topics,
		Status:    models.AutomationStatusRunning,
	}
}

func newTestQueueManager(a *models.Automation) (QueueManager, *fakeAutomationRepo) {
	ar := newFakeAutomationRepo(a)
	pr := &fakeProjectRepo{byID: make(map[string]*models.Project)}
	return NewQueueManager(ar, pr), ar
}

func TestPeekAdvanceWalksQueueInOrder(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("memento mori", "amor fati")
	qm, _ := newTestQueueManager(a)

	item, err := qm.Peek(ctx, a)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if item == nil || item.Title != "memento mori" {
		t.Fatalf("expected first topic under cursor, got %+v", item)
	}
	if item.Status != transfer.QueueItemCurrent {
		t.Fatalf("expected current status, got %s", item.Status)
	}

	if err := qm.Advance(ctx, a); err != nil {
		t.Fatalf("advance: %v", err)
	}

	item, err = qm.Peek(ctx, a)
	if err != nil {
		t.Fatalf("peek after advance: %v", err)
	}
	if item == nil || item.Title != "amor fati" {
		t.Fatalf("expected second topic after advance, got %+v", item)
	}
}

func TestPeekReturnsNilWhenExhausted(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("memento mori")
	a.CurrentTopicIndex = 1
	qm, _ := newTestQueueManager(a)

	item, err := qm.Peek(ctx, a)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item on exhausted queue, got %+v", item)
	}
}

func TestSkipCappedAtQueueLength(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("one", "two")
	qm, ar := newTestQueueManager(a)

	for i := 0; i < 2; i++ {
		if err := qm.Skip(ctx, a); err != nil {
			t.Fatalf("skip %d: %v", i, err)
		}
	}
	if !a.IsExhausted() {
		t.Fatal("expected queue exhausted after skipping every item")
	}

	// Further skips are rejected and the cursor stays put.
	if err := qm.Skip(ctx, a); !errors.Is(err, ErrQueueExhausted) {
		t.Fatalf("expected ErrQueueExhausted, got %v", err)
	}
	if a.Cursor() != 2 {
		t.Fatalf("cursor moved past queue length: %d", a.Cursor())
	}
	if ar.updates != 2 {
		t.Fatalf("expected 2 persisted updates, got %d", ar.updates)
	}
}

func TestAdvanceOnExhaustedQueueFails(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("one")
	a.CurrentTopicIndex = 1
	qm, _ := newTestQueueManager(a)

	if err := qm.Advance(ctx, a); !errors.Is(err, ErrQueueExhausted) {
		t.Fatalf("expected ErrQueueExhausted, got %v", err)
	}
}

func TestAddTopicRules(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("one")
	qm, _ := newTestQueueManager(a)

	if err := qm.AddTopic(ctx, a, ""); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
	if err := qm.AddTopic(ctx, a, "two"); err != nil {
		t.Fatalf("add topic: %v", err)
	}
	if len(a.Topics) != 2 || a.Topics[1] != "two" {
		t.Fatalf("topic not appended: %v", a.Topics)
	}

	b := &models.Automation{
		ID:         "b1",
		QueueMode:  models.QueueModeProjects,
		ProjectIDs: []string{"p1"},
	}
	qmB, _ := newTestQueueManager(b)
	if err := qmB.AddTopic(ctx, b, "nope"); !errors.Is(err, ErrProjectQueue) {
		t.Fatalf("expected ErrProjectQueue, got %v", err)
	}
}

func TestRemoveTopicCursorAdjustment(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("done", "current", "next")
	a.CurrentTopicIndex = 1
	qm, _ := newTestQueueManager(a)

	// Removing a consumed topic pulls the cursor back so it still points
	// at the same logical item.
	if err := qm.RemoveTopic(ctx, a, 0); err != nil {
		t.Fatalf("remove consumed topic: %v", err)
	}
	if a.CurrentTopicIndex != 0 {
		t.Fatalf("cursor not pulled back, got %d", a.CurrentTopicIndex)
	}
	item, _ := qm.Peek(ctx, a)
	if item == nil || item.Title != "current" {
		t.Fatalf("cursor drifted after removal, got %+v", item)
	}

	// Removing the current topic promotes its successor in place.
	if err := qm.RemoveTopic(ctx, a, 0); err != nil {
		t.Fatalf("remove current topic: %v", err)
	}
	item, _ = qm.Peek(ctx, a)
	if item == nil || item.Title != "next" {
		t.Fatalf("successor not promoted, got %+v", item)
	}

	if err := qm.RemoveTopic(ctx, a, 5); !errors.Is(err, ErrTopicOutOfRange) {
		t.Fatalf("expected ErrTopicOutOfRange, got %v", err)
	}
}

func TestProjectionHasExactlyOneCurrentItem(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("one", "two", "three")
	a.CurrentTopicIndex = 1
	qm, _ := newTestQueueManager(a)

	p, err := qm.Projection(ctx, a)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if p.TotalItems != 3 || p.CurrentIndex != 1 || p.Remaining != 2 || p.IsExhausted {
		t.Fatalf("projection summary wrong: %+v", p)
	}

	current := 0
	for _, item := range p.Items {
		switch item.Status {
		case transfer.QueueItemCurrent:
			current++
		case transfer.QueueItemCompleted:
			if item.Index >= p.CurrentIndex {
				t.Fatalf("completed item at or past cursor: %+v", item)
			}
		case transfer.QueueItemPending:
			if item.Index <= p.CurrentIndex {
				t.Fatalf("pending item at or before cursor: %+v", item)
			}
		}
	}
	if current != 1 {
		t.Fatalf("expected exactly one current item, got %d", current)
	}
}

func TestProjectionExhaustedHasNoCurrentItem(t *testing.T) {
	ctx := context.Background()
	a := topicAutomation("one")
	a.CurrentTopicIndex = 1
	qm, _ := newTestQueueManager(a)

	p, err := qm.Projection(ctx, a)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if !p.IsExhausted || p.Remaining != 0 {
		t.Fatalf("expected exhausted projection, got %+v", p)
	}
	for _, item := range p.Items {
		if item.Status == transfer.QueueItemCurrent {
			t.Fatalf("exhausted queue has a current item: %+v", item)
		}
	}
}

func TestProjectQueueUsesProjectTopicsAsTitles(t *testing.T) {
	ctx := context.Background()
	a := &models.Automation{
		ID:         "a2",
		QueueMode:  models.QueueModeProjects,
		ProjectIDs: []string{"p1", "p2"},
	}
	ar := newFakeAutomationRepo(a)
	pr := &fakeProjectRepo{byID: map[string]*models.Project{
		"p1": {ID: "p1", Topic: "the cave allegory"},
	}}
	qm := NewQueueManager(ar, pr)

	item, err := qm.Peek(ctx, a)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if item.Type != "project" || item.Title != "the cave allegory" {
		t.Fatalf("unexpected queue item: %+v", item)
	}

	// Unknown projects fall back to their ID so the queue stays renderable.
	if err := qm.Advance(ctx, a); err != nil {
		t.Fatalf("advance: %v", err)
	}
	item, err = qm.Peek(ctx, a)
	if err != nil {
		t.Fatalf("peek second: %v", err)
	}
	if item.Title != "p2" {
		t.Fatalf("expected ID fallback title, got %q", item.Title)
	}
}
