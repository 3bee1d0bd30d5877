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

func newOwnedRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("owned_repo_test_%d.db", time.Now().UnixNano()))
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

func seedOwnedIdea(t *testing.T, db *gorm.DB, id, userID, title string, createdAt time.Time) {
	t.Helper()
	row := domain.OwnedIdea{
		ID:        id,
		UserID:    userID,
		IdeaTitle: title,
		Problem:   "p",
		Solution:  "s",
		Market:    "m",
		CreatedAt: createdAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestCreateOwnedIdea_Success(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})

	fit := 85
	idea := &domain.OwnedIdea{
		UserID:    "u1",
		IdeaTitle: "PlantPal",
		Problem:   "plants die",
		Solution:  "sensors",
		Market:    "urban",
		Analysis:  []byte(`{"whyNow":"now"}`),
		FitScore:  &fit,
	}
	got, err := CreateOwnedIdea(context.Background(), db, idea)
	if err != nil {
		t.Fatalf("CreateOwnedIdea: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("ID not assigned: %+v", got)
	}

	var loaded domain.OwnedIdea
	if err := db.First(&loaded, "id = ?", got.ID).Error; err != nil {
		t.Fatalf("load created idea: %v", err)
	}
	if loaded.IdeaTitle != "PlantPal" || loaded.FitScore == nil || *loaded.FitScore != 85 {
		t.Fatalf("round-trip mismatch: %+v", loaded)
	}
}

func TestCreateOwnedIdea_FitScoreConstraint(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})

	bad := 150
	_, err := CreateOwnedIdea(context.Background(), db, &domain.OwnedIdea{
		UserID:    "u1",
		IdeaTitle: "T",
		Problem:   "p",
		Solution:  "s",
		Market:    "m",
		FitScore:  &bad,
	})
	if err == nil {
		t.Fatal("expected check constraint violation for fit score 150")
	}
}

func TestListOwnedIdeasPage_PaginationAndOrder(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		seedOwnedIdea(t, db, fmt.Sprintf("i%d", i), "u1", "t", base.Add(time.Duration(i)*time.Second))
	}
	seedOwnedIdea(t, db, "other", "u2", "t", base)

	// Offset 1, limit 2 => the 2nd and 3rd newest => i4, i3
	page, err := ListOwnedIdeasPage(context.Background(), db, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListOwnedIdeasPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "i4" || page[1].ID != "i3" {
		t.Fatalf("unexpected page slice: %+v", page)
	}

	total, err := CountOwnedIdeas(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("CountOwnedIdeas: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5, got %d", total)
	}
}

func TestGetOwnedIdea_OwnershipEnforced(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})
	seedOwnedIdea(t, db, "i1", "owner", "t", time.Now().UTC())

	if _, err := GetOwnedIdea(context.Background(), db, "i1", "owner"); err != nil {
		t.Fatalf("GetOwnedIdea as owner: %v", err)
	}
	if _, err := GetOwnedIdea(context.Background(), db, "i1", "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestDeleteOwnedIdea_SoftDeleteAndOwnership(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})
	seedOwnedIdea(t, db, "i1", "u1", "t", time.Now().UTC())

	// Non-owner cannot delete.
	if err := DeleteOwnedIdea(context.Background(), db, "i1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner delete, got %v", err)
	}

	if err := DeleteOwnedIdea(context.Background(), db, "i1", "u1"); err != nil {
		t.Fatalf("DeleteOwnedIdea: %v", err)
	}

	// Default scope no longer sees the row.
	if _, err := GetOwnedIdea(context.Background(), db, "i1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// But the row still exists unscoped (soft delete).
	var count int64
	if err := db.Unscoped().Model(&domain.OwnedIdea{}).Where("id = ?", "i1").Count(&count).Error; err != nil {
		t.Fatalf("unscoped count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected soft-deleted row to remain, count=%d", count)
	}

	// Deleting again reports not found.
	if err := DeleteOwnedIdea(context.Background(), db, "i1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestListOwnedIdeas_AllForUser(t *testing.T) {
	db := newOwnedRepoDB(t, &domain.OwnedIdea{})
	base := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	seedOwnedIdea(t, db, "a", "u1", "t", base)
	seedOwnedIdea(t, db, "b", "u1", "t", base.Add(time.Minute))
	seedOwnedIdea(t, db, "x", "u2", "t", base)

	list, err := ListOwnedIdeas(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListOwnedIdeas: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("unexpected list: %+v", list)
	}
}
