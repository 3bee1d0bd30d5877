package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

func newProfileRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("profile_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetProfile_NotFound(t *testing.T) {
	db := newProfileRepoDB(t, &domain.Profile{})
	if _, err := GetProfile(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertProfile_InsertThenUpdate(t *testing.T) {
	db := newProfileRepoDB(t, &domain.Profile{})

	// Insert
	p, err := UpsertProfile(context.Background(), db, &domain.Profile{
		ID:        "u1",
		FirstName: "Ada",
		LastName:  "L",
	})
	if err != nil {
		t.Fatalf("UpsertProfile insert: %v", err)
	}
	if p.SubscriptionStatus != domain.TierFree {
		t.Fatalf("expected free tier default, got %q", p.SubscriptionStatus)
	}

	// Promote out of band, then upsert again with new names.
	if err := UpdateSubscription(context.Background(), db, "u1", domain.TierPro); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}
	p2, err := UpsertProfile(context.Background(), db, &domain.Profile{
		ID:                "u1",
		FirstName:         "Grace",
		LastName:          "H",
		SkillsDescription: "compilers",
	})
	if err != nil {
		t.Fatalf("UpsertProfile update: %v", err)
	}
	if p2.FirstName != "Grace" || p2.SkillsDescription != "compilers" {
		t.Fatalf("fields not updated: %+v", p2)
	}
	// Entitlement must survive a profile edit.
	if p2.SubscriptionStatus != domain.TierPro {
		t.Fatalf("subscription clobbered by upsert: %+v", p2)
	}
}

func TestUpsertProfile_CannotSetTierDirectly(t *testing.T) {
	db := newProfileRepoDB(t, &domain.Profile{})

	if _, err := UpsertProfile(context.Background(), db, &domain.Profile{ID: "u1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// A client-supplied tier on an upsert of an existing row is ignored.
	p, err := UpsertProfile(context.Background(), db, &domain.Profile{
		ID:                 "u1",
		SubscriptionStatus: domain.TierAdmin,
	})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if p.SubscriptionStatus != domain.TierFree {
		t.Fatalf("tier escalated through upsert: %+v", p)
	}
}

func TestUpdateSubscription_CreatesRowWhenMissing(t *testing.T) {
	db := newProfileRepoDB(t, &domain.Profile{})

	if err := UpdateSubscription(context.Background(), db, "new-user", domain.TierPro); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}
	p, err := GetProfile(context.Background(), db, "new-user")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.SubscriptionStatus != domain.TierPro {
		t.Fatalf("expected pro, got %q", p.SubscriptionStatus)
	}

	// Idempotent re-promotion.
	if err := UpdateSubscription(context.Background(), db, "new-user", domain.TierPro); err != nil {
		t.Fatalf("repeat UpdateSubscription: %v", err)
	}
}
