package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"slideflow/internal/models"
	"slideflow/internal/service"
	"slideflow/internal/transfer"
)

type memAutomationRepo struct {
	byID map[string]*models.Automation
}

func (r *memAutomationRepo) Create(ctx context.Context, a *models.Automation) error {
	r.byID[a.ID] = a
	return nil
}

func (r *memAutomationRepo) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	return r.byID[id], nil
}

func (r *memAutomationRepo) List(ctx context.Context) ([]*models.Automation, error) {
	return nil, nil
}

func (r *memAutomationRepo) ListByStatus(ctx context.Context, status string) ([]*models.Automation, error) {
	return nil, nil
}

func (r *memAutomationRepo) Update(ctx context.Context, a *models.Automation) error {
	r.byID[a.ID] = a
	return nil
}

func (r *memAutomationRepo) SetStatus(ctx context.Context, id, status string) error {
	if a, ok := r.byID[id]; ok {
		a.Status = status
	}
	return nil
}

func (r *memAutomationRepo) Remove(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type memRunRepo struct {
	byID       map[string]*models.Run
	processing map[string]int
}

func (r *memRunRepo) Create(ctx context.Context, run *models.Run) error {
	cp := *run
	r.byID[run.ID] = &cp
	return nil
}

func (r *memRunRepo) GetByID(ctx context.Context, id string) (*models.Run, error) {
	return r.byID[id], nil
}

func (r *memRunRepo) ListByAutomationID(ctx context.Context, automationID string, limit int) ([]*models.Run, error) {
	var out []*models.Run
	for _, run := range r.byID {
		if run.AutomationID == automationID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (r *memRunRepo) CountProcessing(ctx context.Context, automationID string) (int, error) {
	return r.processing[automationID], nil
}

func (r *memRunRepo) UpdateStatus(ctx context.Context, id, status, errorMessage string) error {
	if run, ok := r.byID[id]; ok {
		run.Status = status
		run.ErrorMessage = errorMessage
	}
	return nil
}

func (r *memRunRepo) UpdateResult(ctx context.Context, run *models.Run) error {
	cp := *run
	r.byID[run.ID] = &cp
	return nil
}

func (r *memRunRepo) UpdatePlatformResult(ctx context.Context, run *models.Run) error {
	cp := *run
	r.byID[run.ID] = &cp
	return nil
}

func (r *memRunRepo) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memProjectRepo struct {
	byID map[string]*models.Project
}

func (r *memProjectRepo) Create(ctx context.Context, p *models.Project) error { return nil }

func (r *memProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.byID[id], nil
}

func (r *memProjectRepo) List(ctx context.Context) ([]*models.Project, error) { return nil, nil }
func (r *memProjectRepo) Update(ctx context.Context, p *models.Project) error { return nil }
func (r *memProjectRepo) Remove(ctx context.Context, id string) error { return nil }

type stubGenerator struct {
	err   error
	specs []service.GenerationSpec
}

func (g *stubGenerator) GenerateContent(ctx context.Context, spec service.GenerationSpec) (*service.GenerationResult, error) {
	g.specs = append(g.specs, spec)
	if g.err != nil {
		return nil, g.err
	}
	return &service.GenerationResult{
		Script:     "SLIDE: one\nSLIDE: two\nSLIDE: three",
		Slides:     []string{"one", "two", "three"},
		ImagePaths: []string{"slides/1.webp", "slides/2.webp", "slides/3.webp"},
	}, nil
}

type stubDispatcher struct {
	platforms []string
}

func (d *stubDispatcher) PostNow(ctx context.Context, run *models.Run, platform string) ([]transfer.PlatformResult, error) {
	d.platforms = append(d.platforms, platform)
	return []transfer.PlatformResult{{Platform: platform, Success: true}}, nil
}

type stubMailer struct {
	sent int
}

func (m *stubMailer) SendRunReport(to string, a *models.Automation, run *models.Run) error {
	m.sent++
	return nil
}

type workerHarness struct {
	q   *Queue
	ar  *memAutomationRepo
	rr  *memRunRepo
	gen *stubGenerator
	pd  *stubDispatcher
	mlr *stubMailer
}

func newWorkerHarness(a *models.Automation) *workerHarness {
	ar := &memAutomationRepo{byID: map[string]*models.Automation{a.ID: a}}
	rr := &memRunRepo{byID: make(map[string]*models.Run), processing: make(map[string]int)}
	pr := &memProjectRepo{byID: make(map[string]*models.Project)}
	gen := &stubGenerator{}
	pd := &stubDispatcher{}
	mlr := &stubMailer{}
	qm := service.NewQueueManager(ar, pr)
	return &workerHarness{
		q:   NewQueue(ar, rr, pr, qm, gen, pd, mlr),
		ar:  ar,
		rr:  rr,
		gen: gen,
		pd:  pd,
		mlr: mlr,
	}
}

func (h *workerHarness) onlyRun(t *testing.T) *models.Run {
	t.Helper()
	if len(h.rr.byID) != 1 {
		t.Fatalf("expected exactly one run, got %d", len(h.rr.byID))
	}
	for _, run := range h.rr.byID {
		return run
	}
	return nil
}

func workerAutomation() *models.Automation {
	return &models.Automation{
		ID:            "a1",
		Name:          "daily stoicism",
		ContentType:   "philosophy",
		ImageStyle:    "oil painting",
		QueueMode:     models.QueueModeTopics,
		Topics:        []string{"memento mori", "amor fati"},
		ScheduleTimes: []string{"09:00"},
		Status:        models.AutomationStatusRunning,
		TiktokEnabled: true,
	}
}

func TestExecuteRunSuccess(t *testing.T) {
	a := workerAutomation()
	h := newWorkerHarness(a)

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	run := h.onlyRun(t)
	if run.Topic != "memento mori" {
		t.Fatalf("run picked wrong topic: %q", run.Topic)
	}
	if run.SlidesCount != 3 || len(run.ImagePaths) != 3 {
		t.Fatalf("generation result not recorded: %+v", run)
	}
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}

	if a.Cursor() != 1 {
		t.Fatalf("cursor not advanced once, got %d", a.Cursor())
	}
	if a.TotalRuns != 1 || a.SuccessfulRuns != 1 || a.FailedRuns != 0 {
		t.Fatalf("counters wrong: total=%d success=%d failed=%d", a.TotalRuns, a.SuccessfulRuns, a.FailedRuns)
	}

	if len(h.pd.platforms) != 1 || h.pd.platforms[0] != models.PlatformTiktok {
		t.Fatalf("expected one tiktok auto-post, got %v", h.pd.platforms)
	}
}

func TestExecuteRunFailureConsumesTopic(t *testing.T) {
	a := workerAutomation()
	h := newWorkerHarness(a)
	h.gen.err = errors.New("fal.ai: quota exceeded")

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	run := h.onlyRun(t)
	if run.Status != models.RunStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
	if run.ErrorMessage != "fal.ai: quota exceeded" {
		t.Fatalf("provider error not verbatim: %q", run.ErrorMessage)
	}

	// A failed topic is consumed, not retried.
	if a.Cursor() != 1 {
		t.Fatalf("cursor not advanced on failure, got %d", a.Cursor())
	}
	if a.TotalRuns != 1 || a.FailedRuns != 1 || a.SuccessfulRuns != 0 {
		t.Fatalf("counters wrong: total=%d success=%d failed=%d", a.TotalRuns, a.SuccessfulRuns, a.FailedRuns)
	}
	if len(h.pd.platforms) != 0 {
		t.Fatalf("failed run must not auto-post, got %v", h.pd.platforms)
	}

	// The next attempt picks the following topic.
	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if a.TotalRuns != 2 || a.Cursor() != 2 {
		t.Fatalf("second attempt bookkeeping wrong: total=%d cursor=%d", a.TotalRuns, a.Cursor())
	}
}

func TestExecuteRunCounterInvariant(t *testing.T) {
	a := workerAutomation()
	a.Topics = []string{"t1", "t2", "t3"}
	h := newWorkerHarness(a)

	h.q.ExecuteRun(context.Background(), a.ID)
	h.gen.err = errors.New("boom")
	h.q.ExecuteRun(context.Background(), a.ID)
	h.gen.err = nil
	h.q.ExecuteRun(context.Background(), a.ID)

	if a.TotalRuns != a.SuccessfulRuns+a.FailedRuns {
		t.Fatalf("counter invariant broken: total=%d success=%d failed=%d", a.TotalRuns, a.SuccessfulRuns, a.FailedRuns)
	}
	if a.TotalRuns != 3 {
		t.Fatalf("expected 3 attempts, got %d", a.TotalRuns)
	}
}

func TestExecuteRunExhaustedQueueCreatesNoRun(t *testing.T) {
	a := workerAutomation()
	a.CurrentTopicIndex = len(a.Topics)
	h := newWorkerHarness(a)

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(h.rr.byID) != 0 {
		t.Fatalf("exhausted queue produced a run")
	}
	if a.TotalRuns != 0 {
		t.Fatalf("exhausted dispatch touched counters: %d", a.TotalRuns)
	}
}

func TestExecuteRunDroppedWhileBusy(t *testing.T) {
	a := workerAutomation()
	h := newWorkerHarness(a)
	h.rr.processing[a.ID] = 1

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(h.rr.byID) != 0 {
		t.Fatalf("busy automation produced a second run")
	}
	if a.Cursor() != 0 {
		t.Fatalf("busy drop moved the cursor: %d", a.Cursor())
	}
}

func TestExecuteRunDroppedAfterStop(t *testing.T) {
	a := workerAutomation()
	a.Status = models.AutomationStatusStopped
	h := newWorkerHarness(a)

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(h.rr.byID) != 0 {
		t.Fatalf("stopped automation produced a run")
	}
}

func TestExecuteRunProjectQueueUsesStoredScript(t *testing.T) {
	a := workerAutomation()
	a.QueueMode = models.QueueModeProjects
	a.Topics = nil
	a.ProjectIDs = []string{"p1"}
	h := newWorkerHarness(a)
	h.q.pr.(*memProjectRepo).byID["p1"] = &models.Project{
		ID:     "p1",
		Topic:  "the cave allegory",
		Script: "SLIDE: shadows on the wall",
	}

	if err := h.q.ExecuteRun(context.Background(), a.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	run := h.onlyRun(t)
	if run.ProjectID != "p1" || run.Topic != "the cave allegory" {
		t.Fatalf("project run fields wrong: %+v", run)
	}
	if len(h.gen.specs) != 1 || h.gen.specs[0].Script != "SLIDE: shadows on the wall" {
		t.Fatalf("stored script not passed to generation: %+v", h.gen.specs)
	}
}

func TestExecuteRunEmailNotification(t *testing.T) {
	a := workerAutomation()
	a.EmailEnabled = true
	a.EmailAddress = "ops@example.com"
	h := newWorkerHarness(a)

	h.q.ExecuteRun(context.Background(), a.ID)
	h.gen.err = errors.New("boom")
	h.q.ExecuteRun(context.Background(), a.ID)

	// Both outcomes send a report.
	if h.mlr.sent != 2 {
		t.Fatalf("expected 2 reports, got %d", h.mlr.sent)
	}
}
