package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/telemetry"
	"slideflow/internal/transfer"
)

var (
	ErrInvalidPlatform = errors.New("platform must be tiktok, instagram or both")
	ErrRunNotPostable  = errors.New("run is not postable: content generation has not completed")
	ErrNotEnoughImages = errors.New("run needs at least 2 images for a slideshow post")
)

// TiktokPoster and InstagramPoster are the narrow surfaces the dispatcher
// needs from the platform services.
type TiktokPoster interface {
	PostSlideshow(ctx context.Context, title string, imagePaths []string) error
}

type InstagramPoster interface {
	PostCarousel(ctx context.Context, caption string, imagePaths []string) error
}

// PostDispatcher publishes a completed run's slides to the requested
// platforms. Attempts are independent: each updates only its own platform's
// fields on the run, and one platform's failure never touches the other's
// result. Retries are always operator-triggered through this same entry
// point, never automatic.
type PostDispatcher interface {
	PostNow(ctx context.Context, run *models.Run, platform string) ([]transfer.PlatformResult, error)
}

type postDispatcher struct {
	rr repository.RunRepository
	tt TiktokPoster
	ig InstagramPoster
}

func NewPostDispatcher(rr repository.RunRepository, tt TiktokPoster, ig InstagramPoster) PostDispatcher {
	return &postDispatcher{rr: rr, tt: tt, ig: ig}
}

func (d *postDispatcher) PostNow(ctx context.Context, run *models.Run, platform string) ([]transfer.PlatformResult, error) {
	if platform != models.PlatformTiktok && platform != models.PlatformInstagram && platform != models.PlatformBoth {
		return nil, ErrInvalidPlatform
	}
	if run.Status != models.RunStatusCompleted && run.Status != models.RunStatusPosted {
		return nil, ErrRunNotPostable
	}
	if len(run.ImagePaths) < 2 {
		return nil, ErrNotEnoughImages
	}

	var results []transfer.PlatformResult

	if platform == models.PlatformTiktok || platform == models.PlatformBoth {
		results = append(results, d.postTiktok(ctx, run))
	}
	if platform == models.PlatformInstagram || platform == models.PlatformBoth {
		results = append(results, d.postInstagram(ctx, run))
	}

	// A run is "posted" once anything went out; platform failures stay on
	// their own fields and never fail the run itself.
	if run.TiktokPosted || run.InstagramPosted {
		run.Status = models.RunStatusPosted
	}

	if err := d.rr.UpdatePlatformResult(ctx, run); err != nil {
		return results, err
	}
	return results, nil
}

func (d *postDispatcher) postTiktok(ctx context.Context, run *models.Run) transfer.PlatformResult {
	run.TiktokPostStatus = models.TiktokPostProcessing
	run.TiktokError = ""

	err := d.tt.PostSlideshow(ctx, run.Topic, run.ImagePaths)
	if err != nil {
		run.TiktokPosted = false
		run.TiktokPostStatus = models.TiktokPostFailed
		run.TiktokError = err.Error()
		telemetry.PlatformPostFailures.WithLabelValues(models.PlatformTiktok).Inc()
		slog.Info(fmt.Sprintf("tiktok post failed for run %s: %v", run.ID, err))
		return transfer.PlatformResult{Platform: models.PlatformTiktok, Success: false, Error: err.Error()}
	}

	run.TiktokPosted = true
	run.TiktokPostStatus = models.TiktokPostSuccess
	telemetry.PlatformPostSuccess.WithLabelValues(models.PlatformTiktok).Inc()
	return transfer.PlatformResult{Platform: models.PlatformTiktok, Success: true}
}

func (d *postDispatcher) postInstagram(ctx context.Context, run *models.Run) transfer.PlatformResult {
	run.InstagramPostStatus = models.InstagramPostPending
	run.InstagramError = ""

	err := d.ig.PostCarousel(ctx, run.Topic, run.ImagePaths)
	if err != nil {
		run.InstagramPosted = false
		run.InstagramPostStatus = models.InstagramPostFailed
		run.InstagramError = err.Error()
		telemetry.PlatformPostFailures.WithLabelValues(models.PlatformInstagram).Inc()
		slog.Info(fmt.Sprintf("instagram post failed for run %s: %v", run.ID, err))
		return transfer.PlatformResult{Platform: models.PlatformInstagram, Success: false, Error: err.Error()}
	}

	run.InstagramPosted = true
	run.InstagramPostStatus = models.InstagramPostPosted
	telemetry.PlatformPostSuccess.WithLabelValues(models.PlatformInstagram).Inc()
	return transfer.PlatformResult{Platform: models.PlatformInstagram, Success: true}
}
