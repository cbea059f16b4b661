package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	config "slideflow/configs"
	"slideflow/internal/models"
	"slideflow/internal/repository"
)

const (
	TIKTOK_AUTH_URL    = "https://www.tiktok.com/v2/auth/authorize"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
)

// ConnectionStatus is what the platform status endpoints return.
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, state string) string
	Status(ctx context.Context, platform string) (*ConnectionStatus, error)
	Disconnect(ctx context.Context, platform string) error
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{cfg: cfg, sa: sa}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, state string) string {
	switch platform {
	case models.PlatformInstagram:
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode())

	case models.PlatformTiktok:
		params := url.Values{}
		params.Add("client_key", s.cfg.TiktokClientKey)
		params.Add("scope", "user.info.basic,user.info.profile,video.publish,video.upload")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TiktokRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", TIKTOK_AUTH_URL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) Status(ctx context.Context, platform string) (*ConnectionStatus, error) {
	acc, err := s.sa.GetByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &ConnectionStatus{Connected: false}, nil
	}
	return &ConnectionStatus{
		Connected: true,
		Username:  acc.AccountUsername,
		ExpiresAt: acc.TokenExpiresAt,
	}, nil
}

func (s *platformService) Disconnect(ctx context.Context, platform string) error {
	return s.sa.Remove(ctx, platform)
}
