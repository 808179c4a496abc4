package banners

import (
	"context"
	"fmt"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// CreateInput carries the fields for a new banner.
type CreateInput struct {
	Title    string
	ImageURL string
	Link     *string
	Active   *bool
}

// UpdateInput carries partial banner updates.
type UpdateInput struct {
	Title    *string
	ImageURL *string
	Link     *string
	Active   *bool
}

// Service defines banner operations.
type Service interface {
	ListActive(ctx context.Context) ([]models.SaleBanner, error)
	ListAll(ctx context.Context) ([]models.SaleBanner, error)
	Create(ctx context.Context, input CreateInput) (*models.SaleBanner, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService wires banner dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("banners repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.SaleBanner, error) {
	banners, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return banners, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.SaleBanner, error) {
	banners, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return banners, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SaleBanner, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner title required")
	}
	if input.ImageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner image url required")
	}

	banner := &models.SaleBanner{
		Title:    input.Title,
		ImageURL: input.ImageURL,
		Link:     input.Link,
		Active:   true,
	}
	if input.Active != nil {
		banner.Active = *input.Active
	}

	created, err := s.repo.Create(ctx, banner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if *input.Title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "banner title required")
		}
		updates["title"] = *input.Title
	}
	if input.ImageURL != nil {
		if *input.ImageURL == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "banner image url required")
		}
		updates["image_url"] = *input.ImageURL
	}
	if input.Link != nil {
		updates["link"] = *input.Link
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	affected, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update banner")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner id required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete banner")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return nil
}
