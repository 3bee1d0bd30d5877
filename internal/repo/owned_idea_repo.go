// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the OwnedIdea
// model: the per-user saved and purchased idea reports.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

// CreateOwnedIdea persists a new owned idea. The caller fills all business
// fields; ID and CreatedAt are assigned here.
func CreateOwnedIdea(ctx context.Context, db *gorm.DB, idea *domain.OwnedIdea) (*domain.OwnedIdea, error) {
	idea.ID = uuid.NewString()
	idea.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

// ListOwnedIdeas returns all of a user's ideas, newest first. Used to build
// the in-memory search index; prefer ListOwnedIdeasPage for API responses.
func ListOwnedIdeas(ctx context.Context, db *gorm.DB, userID string) ([]domain.OwnedIdea, error) {
	var out []domain.OwnedIdea
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountOwnedIdeas returns the total number of ideas owned by userID.
func CountOwnedIdeas(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.OwnedIdea{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListOwnedIdeasPage returns a paginated slice of a user's ideas, ordered by
// creation time descending. Use CountOwnedIdeas to obtain the total for
// pagination metadata.
func ListOwnedIdeasPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.OwnedIdea, error) {
	var out []domain.OwnedIdea
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetOwnedIdea fetches a single idea by ID and owner, or ErrNotFound.
// Ownership is part of the query so a user can never read another user's row.
func GetOwnedIdea(ctx context.Context, db *gorm.DB, id, userID string) (*domain.OwnedIdea, error) {
	var idea domain.OwnedIdea
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&idea).Error
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// DeleteOwnedIdea soft-deletes an idea owned by userID. Returns ErrNotFound
// when the row does not exist or belongs to someone else.
func DeleteOwnedIdea(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.OwnedIdea{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
