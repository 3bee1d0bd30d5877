// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model, which carries the subscription entitlement gate.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

// GetProfile fetches a profile by user id, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts a profile row or updates its editable fields in place.
// SubscriptionStatus is deliberately excluded from the update set: entitlement
// changes only happen through UpdateSubscription, never through profile edits.
func UpsertProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) (*domain.Profile, error) {
	if p.SubscriptionStatus == "" {
		p.SubscriptionStatus = domain.TierFree
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "skills_description", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, p.ID)
}

// UpdateSubscription sets the subscription tier for userID, creating the
// profile row first if the user has never saved one. The write is
// deliberately idempotent: promoting an already-pro user succeeds.
func UpdateSubscription(ctx context.Context, db *gorm.DB, userID, tier string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"subscription_status": tier,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.WithContext(ctx).Create(&domain.Profile{
			ID:                 userID,
			SubscriptionStatus: tier,
		}).Error
	}
	return nil
}
