// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Purchase states recorded through the capture saga.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// Purchase records one payment-capture attempt, keyed by the provider order
// id. The row is claimed (status=pending) before the external capture call,
// which makes the whole saga idempotent: a second capture of the same order
// finds the row and replays its recorded outcome instead of re-executing
// side effects.
type Purchase struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	OrderID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_purchase_order"`
	UserID      string    `gorm:"type:TEXT NOT NULL;index"`
	IdeaID      *string   `gorm:"type:TEXT"` // daily idea bought, if any
	OwnedIdeaID *string   `gorm:"type:TEXT"` // clone created on success
	Status      string    `gorm:"type:TEXT NOT NULL"`
	CaptureBody []byte    `gorm:"type:BLOB"` // provider receipt for replays
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoUpdateTime"`
}

// TableName implements the GORM tabler interface.
func (Purchase) TableName() string { return "purchases" }
