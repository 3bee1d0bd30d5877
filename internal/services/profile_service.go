// Package services – ProfileService
//
// This file implements ProfileService, which manages user profiles and the
// subscription entitlement they carry. Entitlement checks always re-read the
// profile row; the tier is never accepted from the client.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UpdateProfileInput carries the editable profile fields. The subscription
// tier is deliberately absent: it only changes through the purchase flow.
type UpdateProfileInput struct {
	FirstName         string
	LastName          string
	SkillsDescription string
}

// ProfileService provides profile reads, edits, and entitlement checks.
type ProfileService struct {
	DB *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// Get returns the user's profile, creating a default free-tier row on first
// access so every authenticated user always has one.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.UpsertProfile(ctx, s.DB, &domain.Profile{ID: userID})
	}
	return p, err
}

// Update edits the user's profile fields, creating the row if needed.
func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*domain.Profile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.UpsertProfile(ctx, s.DB, &domain.Profile{
		ID:                userID,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		SkillsDescription: strings.TrimSpace(in.SkillsDescription),
	})
}

// IsPro reports whether the user currently holds pro (or admin) access.
// Missing profiles are free-tier by definition, not an error.
func (s *ProfileService) IsPro(ctx context.Context, userID string) (bool, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsPro(), nil
}
