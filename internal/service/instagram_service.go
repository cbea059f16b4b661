package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "slideflow/configs"
	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/transfer"
	"slideflow/pkg/utils"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

type InstagramService interface {
	InstagramCallback(ctx context.Context, code string) error
	RefreshInstagramToken(ctx context.Context, acc *models.SocialAccount) error
	PostCarousel(ctx context.Context, caption string, imagePaths []string) error
}

type instagramService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewInstagramService(cfg config.Config, sa repository.SocialAccountRepository) InstagramService {
	return &instagramService{cfg: cfg, sa: sa}
}

func (ig *instagramService) InstagramCallback(ctx context.Context, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.exchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.getInstagramUserInfo(token.LongLivedToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		Platform:        models.PlatformInstagram,
		AccountID:       userInfo.UserID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Username,
		ProfilePicture:  userInfo.ProfilePicture,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedAccessToken,
		TokenExpiresAt:  token.ExpiresAt,
	}

	return ig.sa.Upsert(ctx, accountInfo)
}

func (ig *instagramService) getShortLivedToken(code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.InstagramClientID)
	data.Set("client_secret", ig.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := http.Post(
		"https://api.instagram.com/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to get short-lived token: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		UserID      int    `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode token response: %v", err)
	}

	return result.AccessToken, nil
}

func (ig *instagramService) getLongLivedToken(shortLivedToken string) (string, time.Time, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		ig.cfg.InstagramClientSecret,
		shortLivedToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to get long-lived token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to decode long-lived token response: %v", err)
	}

	return result.AccessToken, time.Now().Add(time.Second * time.Duration(result.ExpiresIn)), nil
}

func (ig *instagramService) exchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	shortLivedToken, err := ig.getShortLivedToken(code)
	if err != nil {
		return nil, err
	}

	longLivedToken, expiresAt, err := ig.getLongLivedToken(shortLivedToken)
	if err != nil {
		return nil, err
	}

	return &transfer.InstagramToken{
		AccessToken:    longLivedToken,
		LongLivedToken: longLivedToken,
		ExpiresAt:      expiresAt,
	}, nil
}

func (ig *instagramService) getInstagramUserInfo(accessToken string) (*transfer.InstagramUserInfo, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/me?fields=id,username,name,account_type,profile_picture_url&access_token=%s",
		accessToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var userInfo transfer.InstagramUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

func (ig *instagramService) RefreshInstagramToken(ctx context.Context, acc *models.SocialAccount) error {
	decryptedRefreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		decryptedRefreshToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(result.AccessToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	socialAccount := models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedAccessToken,
		TokenExpiresAt: time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}

	return ig.sa.SetToken(ctx, models.PlatformInstagram, &socialAccount)
}

// PostCarousel publishes the slides as an Instagram carousel: one child
// container per image, then a carousel container, then publish.
func (ig *instagramService) PostCarousel(ctx context.Context, caption string, imagePaths []string) error {
	acc, err := ig.sa.GetByPlatform(ctx, models.PlatformInstagram)
	if err != nil {
		return err
	}
	if acc == nil {
		return errors.New("no Instagram account connected")
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	childIDs := make([]string, 0, len(imagePaths))
	for _, imageURL := range imagePaths {
		childID, err := ig.createMediaContainer(ctx, acc.AccountID, accessToken, map[string]any{
			"image_url":        imageURL,
			"is_carousel_item": true,
		})
		if err != nil {
			return err
		}
		childIDs = append(childIDs, childID)
	}

	carouselID, err := ig.createMediaContainer(ctx, acc.AccountID, accessToken, map[string]any{
		"media_type": "CAROUSEL",
		"caption":    caption,
		"children":   strings.Join(childIDs, ","),
	})
	if err != nil {
		return err
	}

	return ig.publishMedia(ctx, acc.AccountID, accessToken, carouselID)
}

func (ig *instagramService) createMediaContainer(ctx context.Context, accountID, accessToken string, payload map[string]any) (string, error) {
	payload["access_token"] = accessToken

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/%s/media", instagramGraphURL, accountID)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var igErr transfer.InstagramErrorResponse
		if json.Unmarshal(body, &igErr) == nil && igErr.Error.Message != "" {
			return "", fmt.Errorf("%s", igErr.Error.Message)
		}
		return "", fmt.Errorf("instagram media container failed with status %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("instagram returned empty container id")
	}
	return result.ID, nil
}

func (ig *instagramService) publishMedia(ctx context.Context, accountID, accessToken, creationID string) error {
	payload := map[string]any{
		"creation_id":  creationID,
		"access_token": accessToken,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, accountID)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var igErr transfer.InstagramErrorResponse
		if json.Unmarshal(body, &igErr) == nil && igErr.Error.Message != "" {
			return fmt.Errorf("%s", igErr.Error.Message)
		}
		return fmt.Errorf("instagram publish failed with status %d", resp.StatusCode)
	}

	return nil
}
