// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Purchase
// model used to implement safe-retry semantics for payment capture.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

// ErrDuplicate indicates that a purchase record already exists for the given
// provider order id.
var ErrDuplicate = errors.New("duplicate")

// CreatePurchase claims an order id by inserting a pending purchase row.
// Returns ErrDuplicate on unique violation, which signals the caller that a
// capture for this order is already in flight or finished.
func CreatePurchase(ctx context.Context, db *gorm.DB, orderID, userID string, ideaID *string) (*domain.Purchase, error) {
	now := time.Now().UTC()
	p := &domain.Purchase{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		IdeaID:    ideaID,
		Status:    domain.PurchasePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// GetPurchaseByOrderID returns the purchase claimed for orderID, or ErrNotFound.
func GetPurchaseByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Purchase, error) {
	var p domain.Purchase
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompletePurchase records a successful capture: the provider receipt, the
// owned-idea clone (if one was created), and the completed status.
func CompletePurchase(ctx context.Context, db *gorm.DB, id string, captureBody []byte, ownedIdeaID *string) error {
	res := db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.PurchaseCompleted,
			"capture_body":  captureBody,
			"owned_idea_id": ownedIdeaID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FailPurchase marks a claimed purchase as failed, keeping whatever the
// provider returned for debugging.
func FailPurchase(ctx context.Context, db *gorm.DB, id string, captureBody []byte) error {
	res := db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       domain.PurchaseFailed,
			"capture_body": captureBody,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
