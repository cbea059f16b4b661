package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/transfer"
)

var (
	ErrAutomationNotFound = errors.New("automation not found")
	ErrInvalidQueueMode   = errors.New("queue_mode must be topics or projects")
	ErrMixedQueueSources  = errors.New("topics and project_ids are mutually exclusive")
)

var validDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

type AutomationService interface {
	Create(ctx context.Context, req *transfer.AutomationCreation) (*models.Automation, error)
	Get(ctx context.Context, id string) (*models.Automation, error)
	List(ctx context.Context) ([]*models.Automation, error)
	Update(ctx context.Context, id string, req *transfer.AutomationUpdate) (*models.Automation, error)
	Remove(ctx context.Context, id string) error
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
}

type automationService struct {
	ar repository.AutomationRepository
}

func NewAutomationService(ar repository.AutomationRepository) AutomationService {
	return &automationService{ar: ar}
}

func validateSchedule(times, days []string) error {
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("invalid schedule time %q, expected HH:MM", t)
		}
	}
	for _, d := range days {
		if !validDays[strings.ToLower(d)] {
			return fmt.Errorf("invalid schedule day %q", d)
		}
	}
	return nil
}

func (s *automationService) Create(ctx context.Context, req *transfer.AutomationCreation) (*models.Automation, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}

	mode := req.QueueMode
	if mode == "" {
		// Older clients omit queue_mode; infer it from which list is present.
		if len(req.ProjectIDs) > 0 {
			mode = models.QueueModeProjects
		} else {
			mode = models.QueueModeTopics
		}
	}
	if mode != models.QueueModeTopics && mode != models.QueueModeProjects {
		return nil, ErrInvalidQueueMode
	}
	if len(req.Topics) > 0 && len(req.ProjectIDs) > 0 {
		return nil, ErrMixedQueueSources
	}
	if mode == models.QueueModeTopics && len(req.ProjectIDs) > 0 {
		return nil, ErrMixedQueueSources
	}
	if mode == models.QueueModeProjects && len(req.Topics) > 0 {
		return nil, ErrMixedQueueSources
	}

	if err := validateSchedule(req.ScheduleTimes, req.ScheduleDays); err != nil {
		return nil, err
	}
	if req.EmailEnabled && req.EmailAddress == "" {
		return nil, errors.New("email_address is required when email_enabled")
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	a := &models.Automation{
		ID:               id,
		Name:             req.Name,
		ContentType:      req.ContentType,
		ImageStyle:       req.ImageStyle,
		QueueMode:        mode,
		Topics:           req.Topics,
		ProjectIDs:       req.ProjectIDs,
		ScheduleTimes:    req.ScheduleTimes,
		ScheduleDays:     normalizeDays(req.ScheduleDays),
		TiktokEnabled:    req.TiktokEnabled,
		InstagramEnabled: req.InstagramEnabled,
		EmailEnabled:     req.EmailEnabled,
		EmailAddress:     req.EmailAddress,
		Status:           models.AutomationStatusIdle,
	}
	if a.ContentType == "" {
		a.ContentType = "slideshow"
	}

	if err := s.ar.Create(ctx, a); err != nil {
		return nil, err
	}
	return s.ar.GetByID(ctx, a.ID)
}

func normalizeDays(days []string) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = strings.ToLower(d)
	}
	return out
}

func (s *automationService) Get(ctx context.Context, id string) (*models.Automation, error) {
	a, err := s.ar.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAutomationNotFound
	}
	return a, nil
}

func (s *automationService) List(ctx context.Context) ([]*models.Automation, error) {
	return s.ar.List(ctx)
}

// Update applies a partial update. The queue itself is edited through the
// queue manager, not here, so queue_mode and the backing lists stay fixed
// after creation.
func (s *automationService) Update(ctx context.Context, id string, req *transfer.AutomationUpdate) (*models.Automation, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.ContentType != nil {
		a.ContentType = *req.ContentType
	}
	if req.ImageStyle != nil {
		a.ImageStyle = *req.ImageStyle
	}
	if req.ScheduleTimes != nil {
		a.ScheduleTimes = *req.ScheduleTimes
	}
	if req.ScheduleDays != nil {
		a.ScheduleDays = normalizeDays(*req.ScheduleDays)
	}
	if err := validateSchedule(a.ScheduleTimes, a.ScheduleDays); err != nil {
		return nil, err
	}
	if req.TiktokEnabled != nil {
		a.TiktokEnabled = *req.TiktokEnabled
	}
	if req.InstagramEnabled != nil {
		a.InstagramEnabled = *req.InstagramEnabled
	}
	if req.EmailEnabled != nil {
		a.EmailEnabled = *req.EmailEnabled
	}
	if req.EmailAddress != nil {
		a.EmailAddress = *req.EmailAddress
	}
	if a.EmailEnabled && a.EmailAddress == "" {
		return nil, errors.New("email_address is required when email_enabled")
	}

	if err := s.ar.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.ar.GetByID(ctx, id)
}

func (s *automationService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.ar.Remove(ctx, id)
}

// Start marks the automation eligible for scheduler dispatch. It does not
// trigger a run by itself.
func (s *automationService) Start(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.ar.SetStatus(ctx, id, models.AutomationStatusRunning)
}

// Stop blocks future scheduler triggers. A run already processing is left to
// finish so partial posting state stays accurate.
func (s *automationService) Stop(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.ar.SetStatus(ctx, id, models.AutomationStatusStopped)
}
