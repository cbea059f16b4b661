package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"slideflow/internal/models"
)

type fakeRunRepo struct {
	byID            map[string]*models.Run
	processing      map[string]int
	platformUpdates int
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{
		byID:       make(map[string]*models.Run),
		processing: make(map[string]int),
	}
}

func (r *fakeRunRepo) Create(ctx context.Context, run *models.Run) error {
	r.byID[run.ID] = run
	return nil
}

func (r *fakeRunRepo) GetByID(ctx context.Context, id string) (*models.Run, error) {
	return r.byID[id], nil
}

func (r *fakeRunRepo) ListByAutomationID(ctx context.Context, automationID string, limit int) ([]*models.Run, error) {
	var out []*models.Run
	for _, run := range r.byID {
		if run.AutomationID == automationID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (r *fakeRunRepo) CountProcessing(ctx context.Context, automationID string) (int, error) {
	return r.processing[automationID], nil
}

func (r *fakeRunRepo) UpdateStatus(ctx context.Context, id, status, errorMessage string) error {
	if run, ok := r.byID[id]; ok {
		run.Status = status
		run.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakeRunRepo) UpdateResult(ctx context.Context, run *models.Run) error {
	r.byID[run.ID] = run
	return nil
}

func (r *fakeRunRepo) UpdatePlatformResult(ctx context.Context, run *models.Run) error {
	r.byID[run.ID] = run
	r.platformUpdates++
	return nil
}

func (r *fakeRunRepo) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubTiktok struct {
	err   error
	calls int
}

func (s *stubTiktok) PostSlideshow(ctx context.Context, title string, imagePaths []string) error {
	s.calls++
	return s.err
}

type stubInstagram struct {
	err   error
	calls int
}

func (s *stubInstagram) PostCarousel(ctx context.Context, caption string, imagePaths []string) error {
	s.calls++
	return s.err
}

func completedRun() *models.Run {
	return &models.Run{
		ID:           "r1",
		AutomationID: "a1",
		Topic:        "memento mori",
		Status:       models.RunStatusCompleted,
		ImagePaths:   []string{"slides/1.webp", "slides/2.webp", "slides/3.webp"},
	}
}

func TestPostNowRejectsUnknownPlatform(t *testing.T) {
	d := NewPostDispatcher(newFakeRunRepo(), &stubTiktok{}, &stubInstagram{})

	_, err := d.PostNow(context.Background(), completedRun(), "youtube")
	if !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
}

func TestPostNowRejectsNonTerminalRun(t *testing.T) {
	d := NewPostDispatcher(newFakeRunRepo(), &stubTiktok{}, &stubInstagram{})

	for _, status := range []string{models.RunStatusPending, models.RunStatusProcessing, models.RunStatusFailed} {
		run := completedRun()
		run.Status = status
		_, err := d.PostNow(context.Background(), run, models.PlatformTiktok)
		if !errors.Is(err, ErrRunNotPostable) {
			t.Fatalf("status %s: expected ErrRunNotPostable, got %v", status, err)
		}
	}
}

func TestPostNowRequiresTwoImages(t *testing.T) {
	rr := newFakeRunRepo()
	tt := &stubTiktok{}
	d := NewPostDispatcher(rr, tt, &stubInstagram{})

	run := completedRun()
	run.ImagePaths = []string{"slides/1.webp"}

	_, err := d.PostNow(context.Background(), run, models.PlatformTiktok)
	if !errors.Is(err, ErrNotEnoughImages) {
		t.Fatalf("expected ErrNotEnoughImages, got %v", err)
	}
	if tt.calls != 0 {
		t.Fatal("platform called despite rejected request")
	}
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("rejected request changed run status to %s", run.Status)
	}
	if rr.platformUpdates != 0 {
		t.Fatal("rejected request persisted a platform update")
	}
}

func TestPostNowPlatformsAreIndependent(t *testing.T) {
	rr := newFakeRunRepo()
	igErr := errors.New("(#100) Invalid parameter: image_url")
	d := NewPostDispatcher(rr, &stubTiktok{}, &stubInstagram{err: igErr})

	run := completedRun()
	results, err := d.PostNow(context.Background(), run, models.PlatformBoth)
	if err != nil {
		t.Fatalf("post now: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if !run.TiktokPosted || run.TiktokPostStatus != models.TiktokPostSuccess {
		t.Fatalf("tiktok result wrong: posted=%v status=%s", run.TiktokPosted, run.TiktokPostStatus)
	}
	if run.InstagramPosted || run.InstagramPostStatus != models.InstagramPostFailed {
		t.Fatalf("instagram result wrong: posted=%v status=%s", run.InstagramPosted, run.InstagramPostStatus)
	}
	// Provider errors are stored verbatim.
	if run.InstagramError != igErr.Error() {
		t.Fatalf("instagram error not verbatim: %q", run.InstagramError)
	}

	// One successful platform is enough to mark the run posted.
	if run.Status != models.RunStatusPosted {
		t.Fatalf("expected posted status, got %s", run.Status)
	}
	if rr.platformUpdates != 1 {
		t.Fatalf("expected one persisted platform update, got %d", rr.platformUpdates)
	}
}

func TestPostNowAllPlatformsFailingKeepsRunCompleted(t *testing.T) {
	d := NewPostDispatcher(newFakeRunRepo(),
		&stubTiktok{err: errors.New("access_token_invalid")},
		&stubInstagram{err: errors.New("session expired")})

	run := completedRun()
	if _, err := d.PostNow(context.Background(), run, models.PlatformBoth); err != nil {
		t.Fatalf("post now: %v", err)
	}

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("platform failures must not fail the run, got %s", run.Status)
	}
	if run.TiktokError != "access_token_invalid" || run.InstagramError != "session expired" {
		t.Fatalf("errors not recorded verbatim: %q / %q", run.TiktokError, run.InstagramError)
	}
}

func TestPostNowOperatorRetryAfterFailure(t *testing.T) {
	rr := newFakeRunRepo()
	tt := &stubTiktok{err: errors.New("rate_limit_exceeded")}
	d := NewPostDispatcher(rr, tt, &stubInstagram{})

	run := completedRun()
	if _, err := d.PostNow(context.Background(), run, models.PlatformTiktok); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if run.Status != models.RunStatusCompleted || run.TiktokPostStatus != models.TiktokPostFailed {
		t.Fatalf("first attempt state wrong: %s / %s", run.Status, run.TiktokPostStatus)
	}

	// The operator retries by hand once the upstream issue clears.
	tt.err = nil
	if _, err := d.PostNow(context.Background(), run, models.PlatformTiktok); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !run.TiktokPosted || run.TiktokPostStatus != models.TiktokPostSuccess {
		t.Fatalf("retry did not clear failure: posted=%v status=%s", run.TiktokPosted, run.TiktokPostStatus)
	}
	if run.TiktokError != "" {
		t.Fatalf("stale error kept after retry: %q", run.TiktokError)
	}
	if run.Status != models.RunStatusPosted {
		t.Fatalf("expected posted after retry, got %s", run.Status)
	}
	if tt.calls != 2 {
		t.Fatalf("expected 2 platform calls, got %d", tt.calls)
	}
}
