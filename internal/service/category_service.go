package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CategoryService defines operations on the category taxonomy
type CategoryService interface {
	// List returns all categories
	List(ctx context.Context) ([]*domain.Category, error)
	// Create adds a category; nesting is limited to one level
	Create(ctx context.Context, actor *domain.Claims, req *dto.CategoryRequest) (*domain.Category, error)
	// Update renames or reparents a category
	Update(ctx context.Context, actor *domain.Claims, id string, req *dto.CategoryRequest) (*domain.Category, error)
	// Delete removes a category with no children
	Delete(ctx context.Context, actor *domain.Claims, id string) error
}

// categoryService implements CategoryService
type categoryService struct {
	categoryRepo repository.CategoryRepository
	now          nowFunc
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		now:          defaultNow,
	}
}

// List returns all categories
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.list")
	defer span.End()

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(categories)))
	span.SetStatus(codes.Ok, "")
	return categories, nil
}

// Create adds a category; nesting is limited to one level
func (s *categoryService) Create(ctx context.Context, actor *domain.Claims, req *dto.CategoryRequest) (*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.create")
	defer span.End()

	if !actor.Role.CanManageCategories() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	if err := s.validateParent(ctx, req.ParentID, ""); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		CreatedAt:   s.now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategoryName) {
			span.SetStatus(codes.Error, "name taken")
			return nil, domain.ErrCategoryNameTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("category_id", category.ID))
	span.SetStatus(codes.Ok, "")
	return category, nil
}

// Update renames or reparents a category
func (s *categoryService) Update(ctx context.Context, actor *domain.Claims, id string, req *dto.CategoryRequest) (*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.update")
	defer span.End()

	span.SetAttributes(attribute.String("category_id", id))

	if !actor.Role.CanManageCategories() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if category == nil {
		span.SetStatus(codes.Error, "category not found")
		return nil, domain.ErrCategoryNotFound
	}

	if err := s.validateParent(ctx, req.ParentID, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// A category that already has children may not itself be nested.
	if req.ParentID != nil {
		hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if hasChildren {
			span.SetStatus(codes.Error, "category has children")
			return nil, domain.ErrCategoryNested
		}
	}

	category.Name = req.Name
	category.Description = req.Description
	category.ParentID = req.ParentID

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategoryName) {
			span.SetStatus(codes.Error, "name taken")
			return nil, domain.ErrCategoryNameTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return category, nil
}

// Delete removes a category with no children
func (s *categoryService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.category.delete")
	defer span.End()

	span.SetAttributes(attribute.String("category_id", id))

	if !actor.Role.CanManageCategories() {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if category == nil {
		span.SetStatus(codes.Error, "category not found")
		return domain.ErrCategoryNotFound
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if hasChildren {
		span.SetStatus(codes.Error, "category in use")
		return domain.ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// validateParent enforces the one-level hierarchy: a parent must exist, must
// be a root category, and a category cannot be its own parent.
func (s *categoryService) validateParent(ctx context.Context, parentID *string, selfID string) error {
	if parentID == nil {
		return nil
	}
	if selfID != "" && *parentID == selfID {
		return domain.ErrCategoryNested
	}

	parent, err := s.categoryRepo.GetByID(ctx, *parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return domain.ErrCategoryNotFound
	}
	if parent.ParentID != nil {
		return domain.ErrCategoryNested
	}
	return nil
}
