package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TrackingService defines operations on analytics snippets
type TrackingService interface {
	// List returns all tracking codes
	List(ctx context.Context, actor *domain.Claims) ([]*domain.TrackingCode, error)
	// ListActive returns active codes for a public page injection slot
	ListActive(ctx context.Context, position domain.Position) ([]*domain.TrackingCode, error)
	// Create adds a tracking code
	Create(ctx context.Context, actor *domain.Claims, req *dto.TrackingCodeRequest) (*domain.TrackingCode, error)
	// Update modifies a tracking code
	Update(ctx context.Context, actor *domain.Claims, id string, req *dto.TrackingCodeRequest) (*domain.TrackingCode, error)
	// Delete removes a tracking code
	Delete(ctx context.Context, actor *domain.Claims, id string) error
}

// trackingService implements TrackingService
type trackingService struct {
	trackingRepo repository.TrackingCodeRepository
	now          nowFunc
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(trackingRepo repository.TrackingCodeRepository) TrackingService {
	return &trackingService{
		trackingRepo: trackingRepo,
		now:          defaultNow,
	}
}

// List returns all tracking codes
func (s *trackingService) List(ctx context.Context, actor *domain.Claims) ([]*domain.TrackingCode, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tracking.list")
	defer span.End()

	if !actor.Role.CanManageTracking() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	codesList, err := s.trackingRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(codesList)))
	span.SetStatus(codes.Ok, "")
	return codesList, nil
}

// ListActive returns active codes for a public page injection slot
func (s *trackingService) ListActive(ctx context.Context, position domain.Position) ([]*domain.TrackingCode, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tracking.list_active")
	defer span.End()

	span.SetAttributes(attribute.String("position", string(position)))

	if !position.Valid() {
		span.SetStatus(codes.Error, "invalid position")
		return nil, domain.ErrInvalidPosition
	}

	codesList, err := s.trackingRepo.ListActiveByPosition(ctx, position)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return codesList, nil
}

// Create adds a tracking code
func (s *trackingService) Create(ctx context.Context, actor *domain.Claims, req *dto.TrackingCodeRequest) (*domain.TrackingCode, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tracking.create")
	defer span.End()

	if !actor.Role.CanManageTracking() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	position := domain.Position(req.Position)
	if !position.Valid() {
		span.SetStatus(codes.Error, "invalid position")
		return nil, domain.ErrInvalidPosition
	}

	now := s.now()
	code := &domain.TrackingCode{
		ID:        uuid.New().String(),
		Platform:  req.Platform,
		Code:      req.Code,
		Position:  position,
		Active:    req.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.trackingRepo.Create(ctx, code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("tracking_code_id", code.ID))
	span.SetStatus(codes.Ok, "")
	return code, nil
}

// Update modifies a tracking code
func (s *trackingService) Update(ctx context.Context, actor *domain.Claims, id string, req *dto.TrackingCodeRequest) (*domain.TrackingCode, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tracking.update")
	defer span.End()

	span.SetAttributes(attribute.String("tracking_code_id", id))

	if !actor.Role.CanManageTracking() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	position := domain.Position(req.Position)
	if !position.Valid() {
		span.SetStatus(codes.Error, "invalid position")
		return nil, domain.ErrInvalidPosition
	}

	code, err := s.trackingRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if code == nil {
		span.SetStatus(codes.Error, "tracking code not found")
		return nil, domain.ErrTrackingCodeNotFound
	}

	code.Platform = req.Platform
	code.Code = req.Code
	code.Position = position
	code.Active = req.Active
	code.UpdatedAt = s.now()

	if err := s.trackingRepo.Update(ctx, code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return code, nil
}

// Delete removes a tracking code
func (s *trackingService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.tracking.delete")
	defer span.End()

	span.SetAttributes(attribute.String("tracking_code_id", id))

	if !actor.Role.CanManageTracking() {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	code, err := s.trackingRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if code == nil {
		span.SetStatus(codes.Error, "tracking code not found")
		return domain.ErrTrackingCodeNotFound
	}

	if err := s.trackingRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
