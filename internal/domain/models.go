// Package domain defines the persistence models for daily ideas, owned ideas,
// and user profiles. These types are mapped with GORM and form the core data
// layer of the IdeaLab application.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Subscription tiers stored on Profile.SubscriptionStatus.
const (
	TierFree  = "free"
	TierPro   = "pro"
	TierAdmin = "admin"
)

// Daily idea lifecycle states.
const (
	IdeaAvailable = "available"
	IdeaSold      = "sold"
)

// DailyIdea is the single globally shared "idea of the day". A new row is
// generated when the newest available one ages past the freshness window.
// At most one user may ever purchase a given row; the available->sold
// transition is performed with a conditional update so concurrent buyers
// cannot both win.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - IdeaData: the full seven-section generated report as JSON.
//   - Status: "available" or "sold" (enforced by DB constraint).
//   - PurchasedBy: buyer's user id, set exactly once when sold.
//   - GeneratedAt: creation instant used by the freshness rule; indexed for
//     the latest-available lookup.
type DailyIdea struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	IdeaData    datatypes.JSON `json:"idea_data"    gorm:"not null"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;default:'available';check:status IN ('available','sold');index:idx_status_generated,priority:1"`
	PurchasedBy *string        `json:"purchased_by_user_id,omitempty" gorm:"type:varchar(64)"`
	GeneratedAt time.Time      `json:"generated_at" gorm:"not null;index:idx_status_generated,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the database table name for DailyIdea.
func (DailyIdea) TableName() string { return "daily_ideas" }

// OwnedIdea is a per-user, permanent copy of an idea report, created either
// by an explicit save or by a purchase. The core idea fields are fanned out
// into columns so lists can select cheaply; the analysis sections stay JSON.
// Rows are immutable after creation except for deletion by their owner
// (soft-deleted for audit).
type OwnedIdea struct {
	ID        string `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_ideas"`
	IdeaTitle string `json:"idea_title" gorm:"type:varchar(255);not null"`
	Problem   string `json:"problem"    gorm:"type:text;not null"`
	Solution  string `json:"solution"   gorm:"type:text;not null"`
	Market    string `json:"market"     gorm:"type:text;not null"`

	Analysis      datatypes.JSON `json:"analysis,omitempty"`
	TrendData     datatypes.JSON `json:"trend_data,omitempty"`
	GoToMarket    datatypes.JSON `json:"go_to_market,omitempty"`
	Attributes    datatypes.JSON `json:"idea_attributes,omitempty"`
	HealthMetrics datatypes.JSON `json:"idea_health_metrics,omitempty"`
	ValueLadder   datatypes.JSON `json:"value_ladder,omitempty"`

	// FitScore is the founder-fit quiz result (0-100); only present for
	// manually saved ideas.
	FitScore *int `json:"fit_score,omitempty" gorm:"check:fit_score IS NULL OR (fit_score >= 0 AND fit_score <= 100)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for OwnedIdea.
func (OwnedIdea) TableName() string { return "ideas" }

// Profile carries per-user account data. The primary key equals the
// authenticated user id; rows are upserted on first touch. SubscriptionStatus
// is the single entitlement gate and must be re-read from this table on every
// gated access, never trusted from the client.
type Profile struct {
	ID                 string    `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	FirstName          string    `json:"first_name"          gorm:"type:varchar(100)"`
	LastName           string    `json:"last_name"           gorm:"type:varchar(100)"`
	SkillsDescription  string    `json:"skills_description"  gorm:"type:text"`
	SubscriptionStatus string    `json:"subscription_status" gorm:"type:varchar(16);not null;default:'free';check:subscription_status IN ('free','pro','admin')"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// IsPro reports whether the profile grants access to pro-gated content.
func (p Profile) IsPro() bool {
	return p.SubscriptionStatus == TierPro || p.SubscriptionStatus == TierAdmin
}
