package service

import (
	"context"
	"errors"

	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrCannotDeleteAdmin = errors.New("cannot delete admin users")
	ErrInvalidStatus     = errors.New("invalid user status")
)

// UserService defines admin-facing user management operations
type UserService interface {
	// List returns all users
	List(ctx context.Context, actor *domain.Claims) ([]*domain.User, error)
	// UpdateStatus pauses or reactivates an account
	UpdateStatus(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error)
	// Delete removes a user and cascades to their book listings.
	// Admin accounts cannot be deleted.
	Delete(ctx context.Context, actor *domain.Claims, id string) error
}

// userService implements UserService
type userService struct {
	userRepo repository.UserRepository
	bookRepo repository.BookRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, bookRepo repository.BookRepository) UserService {
	return &userService{
		userRepo: userRepo,
		bookRepo: bookRepo,
	}
}

// List returns all users
func (s *userService) List(ctx context.Context, actor *domain.Claims) ([]*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.list")
	defer span.End()

	if !actor.Role.CanManageUsers() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(users)))
	span.SetStatus(codes.Ok, "")
	return users, nil
}

// UpdateStatus pauses or reactivates an account
func (s *userService) UpdateStatus(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.update_status")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	if !actor.Role.CanManageUsers() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}
	if !status.Valid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, ErrInvalidStatus
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// Delete removes a user and cascades to their book listings
func (s *userService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.user.delete")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	if !actor.Role.CanManageUsers() {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return ErrUserNotFound
	}
	if user.Role == domain.RoleAdmin {
		span.SetStatus(codes.Error, "cannot delete admin")
		return ErrCannotDeleteAdmin
	}

	// Books go first so a failure leaves the account intact and the
	// operation retryable.
	deleted, err := s.bookRepo.DeleteByUser(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int64("books_deleted", deleted))

	if err := s.userRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
