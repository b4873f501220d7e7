package service

import (
	"context"
	"errors"
	"testing"

	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
)

func trackingRequest(platform string, position domain.Position, active bool) *dto.TrackingCodeRequest {
	return &dto.TrackingCodeRequest{
		Platform: platform,
		Code:     "<script>analytics()</script>",
		Position: string(position),
		Active:   active,
	}
}

func TestTrackingService_Create(t *testing.T) {
	svc := NewTrackingService(repository.NewMemoryTrackingCodeRepository())
	ctx := context.Background()
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	t.Run("non-admin is rejected", func(t *testing.T) {
		actor := &domain.Claims{UserID: "x", Role: domain.RoleContributor}
		if _, err := svc.Create(ctx, actor, trackingRequest("ga", domain.PositionHead, true)); !errors.Is(err, ErrForbidden) {
			t.Errorf("Create() error = %v, want %v", err, ErrForbidden)
		}
	})

	t.Run("successful create", func(t *testing.T) {
		code, err := svc.Create(ctx, admin, trackingRequest("ga", domain.PositionHead, true))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if code.Position != domain.PositionHead {
			t.Errorf("Create() Position = %v", code.Position)
		}
	})

	t.Run("invalid position", func(t *testing.T) {
		if _, err := svc.Create(ctx, admin, trackingRequest("ga", "footer", true)); !errors.Is(err, domain.ErrInvalidPosition) {
			t.Errorf("Create() error = %v, want %v", err, domain.ErrInvalidPosition)
		}
	})
}

func TestTrackingService_ListActive(t *testing.T) {
	svc := NewTrackingService(repository.NewMemoryTrackingCodeRepository())
	ctx := context.Background()
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	svc.Create(ctx, admin, trackingRequest("ga", domain.PositionHead, true))
	svc.Create(ctx, admin, trackingRequest("fb", domain.PositionHead, false))
	svc.Create(ctx, admin, trackingRequest("hotjar", domain.PositionBodyEnd, true))

	t.Run("only active codes at the requested slot", func(t *testing.T) {
		codes, err := svc.ListActive(ctx, domain.PositionHead)
		if err != nil {
			t.Fatalf("ListActive() error = %v", err)
		}
		if len(codes) != 1 {
			t.Fatalf("ListActive() returned %d codes, want 1", len(codes))
		}
		if codes[0].Platform != "ga" {
			t.Errorf("ListActive() Platform = %q, want ga", codes[0].Platform)
		}
	})

	t.Run("invalid position", func(t *testing.T) {
		if _, err := svc.ListActive(ctx, "sidebar"); !errors.Is(err, domain.ErrInvalidPosition) {
			t.Errorf("ListActive() error = %v, want %v", err, domain.ErrInvalidPosition)
		}
	})

	t.Run("admin listing shows everything", func(t *testing.T) {
		codes, err := svc.List(ctx, admin)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(codes) != 3 {
			t.Errorf("List() returned %d codes, want 3", len(codes))
		}
	})
}

func TestTrackingService_UpdateDelete(t *testing.T) {
	svc := NewTrackingService(repository.NewMemoryTrackingCodeRepository())
	ctx := context.Background()
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	code, err := svc.Create(ctx, admin, trackingRequest("ga", domain.PositionHead, true))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("deactivate", func(t *testing.T) {
		updated, err := svc.Update(ctx, admin, code.ID, trackingRequest("ga", domain.PositionHead, false))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Active {
			t.Error("Update() code still active")
		}

		active, _ := svc.ListActive(ctx, domain.PositionHead)
		if len(active) != 0 {
			t.Errorf("ListActive() returned %d codes after deactivation", len(active))
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, err := svc.Update(ctx, admin, "no-such-id", trackingRequest("ga", domain.PositionHead, true)); !errors.Is(err, domain.ErrTrackingCodeNotFound) {
			t.Errorf("Update() error = %v, want %v", err, domain.ErrTrackingCodeNotFound)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.Delete(ctx, admin, code.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := svc.Delete(ctx, admin, code.ID); !errors.Is(err, domain.ErrTrackingCodeNotFound) {
			t.Errorf("second Delete() error = %v, want %v", err, domain.ErrTrackingCodeNotFound)
		}
	})
}
