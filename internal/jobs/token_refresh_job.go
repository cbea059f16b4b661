package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/service"
)

// TokenRefreshJob renews platform tokens that expire soon, so scheduled posts
// do not fail on a stale credential mid-run.
type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	tt service.TiktokService
	ig service.InstagramService
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	tt service.TiktokService,
	ig service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		tt: tt,
		ig: ig,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	accounts, err := c.sr.ListExpiringBefore(ctx, time.Now().Add(30*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	for _, acc := range accounts {
		wg.Add(1)
		go func(acc *models.SocialAccount) {
			defer wg.Done()

			switch acc.Platform {
			case models.PlatformInstagram:
				if err := c.ig.RefreshInstagramToken(ctx, acc); err != nil {
					slog.Info("Unable to refresh tokens for Instagram")
				}
			case models.PlatformTiktok:
				if err := c.tt.RefreshTiktokToken(ctx, acc); err != nil {
					slog.Info("Unable to refresh tokens for TikTok")
				}
			}
		}(acc)
	}

	wg.Wait()
}
