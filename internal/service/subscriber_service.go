package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/mailer"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SubscriberService defines the email-gate capture operations
type SubscriberService interface {
	// Subscribe records a gate submission for a book and sends the welcome
	// mail. Re-submitting the same email for the same book succeeds with
	// IsNew false and sends nothing.
	Subscribe(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error)
	// ListByBook returns a book's subscribers; only the owner or an admin may
	ListByBook(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error)
	// ExportCSV streams a book's subscribers as CSV to w
	ExportCSV(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error
}

// subscriberService implements SubscriberService
type subscriberService struct {
	subscriberRepo repository.SubscriberRepository
	bookRepo       repository.BookRepository
	mail           mailer.Mailer
	publicURL      string
	now            nowFunc
}

// NewSubscriberService creates a new SubscriberService
func NewSubscriberService(
	subscriberRepo repository.SubscriberRepository,
	bookRepo repository.BookRepository,
	mail mailer.Mailer,
	publicURL string,
) SubscriberService {
	return &subscriberService{
		subscriberRepo: subscriberRepo,
		bookRepo:       bookRepo,
		mail:           mail,
		publicURL:      publicURL,
		now:            defaultNow,
	}
}

// Subscribe records a gate submission for a book
func (s *subscriberService) Subscribe(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.subscriber.subscribe")
	defer span.End()

	span.SetAttributes(
		attribute.String("book_id", req.BookID),
		attribute.String("email", req.Email),
	)

	book, err := s.bookRepo.GetByID(ctx, req.BookID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if book == nil {
		span.SetStatus(codes.Error, "book not found")
		return nil, domain.ErrBookNotFound
	}
	if !book.Published() {
		span.SetStatus(codes.Error, "book unpublished")
		return nil, domain.ErrBookUnpublished
	}

	sub := &domain.Subscriber{
		ID:        uuid.New().String(),
		BookID:    book.ID,
		FullName:  req.FullName,
		Email:     req.Email,
		CreatedAt: s.now(),
	}

	if err := s.subscriberRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrDuplicateSubscriber) {
			span.SetStatus(codes.Ok, "already subscribed")
			return &dto.SubscribeResponse{IsNew: false}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	bookLink := fmt.Sprintf("%s/book/%s", s.publicURL, book.Slug)
	if err := s.mail.SendWelcome(ctx, req.Email, req.FullName, book.Title, bookLink, book.DiscountCode); err != nil {
		// The submission is already recorded; a mail failure does not undo
		// the gate transition.
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "")
	return &dto.SubscribeResponse{IsNew: true}, nil
}

// ListByBook returns a book's subscribers
func (s *subscriberService) ListByBook(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.subscriber.list_by_book")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", bookID))

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if book == nil {
		span.SetStatus(codes.Error, "book not found")
		return nil, domain.ErrBookNotFound
	}
	if book.UserID != actor.UserID && !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	subs, err := s.subscriberRepo.ListByBook(ctx, bookID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(subs)))
	span.SetStatus(codes.Ok, "")
	return subs, nil
}

// ExportCSV streams a book's subscribers as CSV to w
func (s *subscriberService) ExportCSV(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error {
	ctx, span := telemetry.StartSpan(ctx, "service.subscriber.export_csv")
	defer span.End()

	subs, err := s.ListByBook(ctx, actor, bookID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"full_name", "email", "subscribed_at"}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	for _, sub := range subs {
		record := []string{sub.FullName, sub.Email, sub.CreatedAt.Format(time.RFC3339)}
		if err := cw.Write(record); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("count", len(subs)))
	span.SetStatus(codes.Ok, "")
	return nil
}
