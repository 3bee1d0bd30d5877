// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the shared
// DailyIdea model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an idea is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateDailyIdea inserts a new available idea row holding the given report
// JSON. The idea ID is a randomly generated UUID and GeneratedAt is set to UTC.
func CreateDailyIdea(ctx context.Context, db *gorm.DB, ideaData []byte) (*domain.DailyIdea, error) {
	d := &domain.DailyIdea{
		ID:          uuid.NewString(),
		IdeaData:    ideaData,
		Status:      domain.IdeaAvailable,
		GeneratedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// LatestAvailableIdea returns the most recently generated idea that is still
// available for purchase. Sold rows never qualify, regardless of age.
// Returns ErrNotFound when no available idea exists.
func LatestAvailableIdea(ctx context.Context, db *gorm.DB) (*domain.DailyIdea, error) {
	var d domain.DailyIdea
	err := db.WithContext(ctx).
		Where("status = ?", domain.IdeaAvailable).
		Order("generated_at desc").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDailyIdea fetches a single idea by ID, or ErrNotFound if missing.
func GetDailyIdea(ctx context.Context, db *gorm.DB, id string) (*domain.DailyIdea, error) {
	var d domain.DailyIdea
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkIdeaSold transitions an idea from available to sold on behalf of userID.
// The update is conditional on the current status, so exactly one of any
// number of concurrent buyers succeeds; everyone else gets ErrNotFound
// (row missing or already sold).
func MarkIdeaSold(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.DailyIdea{}).
		Where("id = ? AND status = ?", id, domain.IdeaAvailable).
		Updates(map[string]any{
			"status":       domain.IdeaSold,
			"purchased_by": userID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
