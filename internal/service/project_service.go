package service

import (
	"context"
	"errors"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/transfer"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectService interface {
	Create(ctx context.Context, req *transfer.ProjectCreation) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, id string, req *transfer.ProjectCreation) (*models.Project, error)
	Remove(ctx context.Context, id string) error
}

type projectService struct {
	pr repository.ProjectRepository
}

func NewProjectService(pr repository.ProjectRepository) ProjectService {
	return &projectService{pr: pr}
}

func (s *projectService) Create(ctx context.Context, req *transfer.ProjectCreation) (*models.Project, error) {
	if req.Topic == "" {
		return nil, errors.New("topic is required")
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	p := &models.Project{
		ID:          id,
		Topic:       req.Topic,
		ContentType: req.ContentType,
		ImageStyle:  req.ImageStyle,
		Script:      req.Script,
		Status:      models.ProjectStatusDraft,
	}
	if p.ContentType == "" {
		p.ContentType = "slideshow"
	}
	if p.Script != "" {
		p.Status = models.ProjectStatusReady
	}

	if err := s.pr.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.pr.GetByID(ctx, id)
}

func (s *projectService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.pr.List(ctx)
}

func (s *projectService) Update(ctx context.Context, id string, req *transfer.ProjectCreation) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Topic != "" {
		p.Topic = req.Topic
	}
	if req.ContentType != "" {
		p.ContentType = req.ContentType
	}
	if req.ImageStyle != "" {
		p.ImageStyle = req.ImageStyle
	}
	if req.Script != "" {
		p.Script = req.Script
		p.Status = models.ProjectStatusReady
	}

	if err := s.pr.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.pr.Remove(ctx, id)
}
