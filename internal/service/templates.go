package service

import (
	"context"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// TemplateParams carries the fields accepted when creating or editing a
// photo-layout template.
type TemplateParams struct {
	Name        string
	Description string
	ImagePath   string
	MaxPhotos   int
	IsActive    *bool
}

// TemplateService manages the template registry.
type TemplateService interface {
	// Create registers a template owned by creator.
	Create(ctx context.Context, creator uuid.UUID, p TemplateParams) (*model.PhotoTemplate, error)
	// Get loads a template.
	Get(ctx context.Context, id int64) (*model.PhotoTemplate, error)
	// List returns templates, optionally only active ones.
	List(ctx context.Context, activeOnly bool) ([]model.PhotoTemplate, error)
	// Update applies edits to a template.
	Update(ctx context.Context, id int64, p TemplateParams) (*model.PhotoTemplate, error)
	// Delete removes a template; sessions that used it keep a nulled
	// reference and survive.
	Delete(ctx context.Context, id int64) error
}

type TemplateServiceImpl struct {
	templates repository.TemplateRepository
}

// NewTemplateService constructs TemplateService.
func NewTemplateService(templates repository.TemplateRepository) *TemplateServiceImpl {
	return &TemplateServiceImpl{templates: templates}
}

// Create registers a template owned by creator.
func (s *TemplateServiceImpl) Create(ctx context.Context, creator uuid.UUID, p TemplateParams) (*model.PhotoTemplate, error) {
	if p.Name == "" {
		return nil, errs.Validation("name", "required")
	}
	if p.MaxPhotos <= 0 {
		p.MaxPhotos = model.DefaultNumPhotos
	}
	t := &model.PhotoTemplate{
		Name:        p.Name,
		Description: p.Description,
		ImagePath:   p.ImagePath,
		MaxPhotos:   p.MaxPhotos,
		IsActive:    true,
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if creator != uuid.Nil {
		t.CreatedBy = &creator
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get loads a template.
func (s *TemplateServiceImpl) Get(ctx context.Context, id int64) (*model.PhotoTemplate, error) {
	return s.templates.GetByID(ctx, id)
}

// List returns templates, optionally only active ones.
func (s *TemplateServiceImpl) List(ctx context.Context, activeOnly bool) ([]model.PhotoTemplate, error) {
	return s.templates.List(ctx, activeOnly)
}

// Update applies edits to a template.
func (s *TemplateServiceImpl) Update(ctx context.Context, id int64, p TemplateParams) (*model.PhotoTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != "" {
		t.Name = p.Name
	}
	if p.Description != "" {
		t.Description = p.Description
	}
	if p.ImagePath != "" {
		t.ImagePath = p.ImagePath
	}
	if p.MaxPhotos > 0 {
		t.MaxPhotos = p.MaxPhotos
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template.
func (s *TemplateServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.templates.Delete(ctx, id)
}
