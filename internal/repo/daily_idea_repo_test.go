package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/upstarthq/idealab-backend/internal/domain"
)

func newDailyRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("daily_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
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

func TestCreateDailyIdea_Error_NoTable(t *testing.T) {
	db := newDailyRepoDB(t /* no migrations */)
	idea, err := CreateDailyIdea(context.Background(), db, []byte(`{}`))
	if err == nil || idea != nil {
		t.Fatalf("expected error creating without table, got idea=%v err=%v", idea, err)
	}
}

func TestCreateDailyIdea_Success_PersistsAndSetsFields(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})

	start := time.Now().UTC().Add(-time.Minute)
	idea, err := CreateDailyIdea(context.Background(), db, []byte(`{"idea":{"idea_title":"X"}}`))
	if err != nil {
		t.Fatalf("CreateDailyIdea: %v", err)
	}
	if idea.ID == "" || idea.Status != domain.IdeaAvailable {
		t.Fatalf("unexpected DailyIdea fields: %+v", idea)
	}
	if idea.GeneratedAt.Before(start) {
		t.Fatalf("GeneratedAt seems unset/really old: %v", idea.GeneratedAt)
	}
	// round-trip
	var got domain.DailyIdea
	if err := db.First(&got, "id = ?", idea.ID).Error; err != nil {
		t.Fatalf("load created idea: %v", err)
	}
	if got.Status != domain.IdeaAvailable || len(got.IdeaData) == 0 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestLatestAvailableIdea_SkipsSoldAndOrders(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour) // newest, but sold
	buyer := "u9"
	rows := []domain.DailyIdea{
		{ID: "old", IdeaData: []byte(`{}`), Status: domain.IdeaAvailable, GeneratedAt: t1},
		{ID: "mid", IdeaData: []byte(`{}`), Status: domain.IdeaAvailable, GeneratedAt: t2},
		{ID: "new", IdeaData: []byte(`{}`), Status: domain.IdeaSold, PurchasedBy: &buyer, GeneratedAt: t3},
	}
	for _, r := range rows {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	got, err := LatestAvailableIdea(context.Background(), db)
	if err != nil {
		t.Fatalf("LatestAvailableIdea: %v", err)
	}
	if got.ID != "mid" {
		t.Fatalf("expected newest available row 'mid', got %q", got.ID)
	}
}

func TestLatestAvailableIdea_NotFound(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})

	// Empty table
	if _, err := LatestAvailableIdea(context.Background(), db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty table, got %v", err)
	}

	// Only sold rows
	buyer := "u1"
	sold := domain.DailyIdea{ID: "s1", IdeaData: []byte(`{}`), Status: domain.IdeaSold, PurchasedBy: &buyer, GeneratedAt: time.Now().UTC()}
	if err := db.Create(&sold).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := LatestAvailableIdea(context.Background(), db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with only sold rows, got %v", err)
	}
}

func TestGetDailyIdea_FoundAndNotFound(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})

	if _, err := GetDailyIdea(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing idea, got %v", err)
	}

	seed := domain.DailyIdea{ID: "d1", IdeaData: []byte(`{}`), Status: domain.IdeaAvailable, GeneratedAt: time.Now().UTC()}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetDailyIdea(context.Background(), db, "d1")
	if err != nil {
		t.Fatalf("GetDailyIdea: %v", err)
	}
	if got.ID != "d1" {
		t.Fatalf("unexpected idea: %+v", got)
	}
}

func TestMarkIdeaSold_WinnerTakesRow(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})

	seed := domain.DailyIdea{ID: "d1", IdeaData: []byte(`{}`), Status: domain.IdeaAvailable, GeneratedAt: time.Now().UTC()}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// First buyer wins.
	if err := MarkIdeaSold(context.Background(), db, "d1", "u1"); err != nil {
		t.Fatalf("MarkIdeaSold: %v", err)
	}
	var got domain.DailyIdea
	if err := db.First(&got, "id = ?", "d1").Error; err != nil {
		t.Fatalf("load sold idea: %v", err)
	}
	if got.Status != domain.IdeaSold || got.PurchasedBy == nil || *got.PurchasedBy != "u1" {
		t.Fatalf("unexpected state after sale: %+v", got)
	}

	// Second buyer loses: status guard matches no rows.
	if err := MarkIdeaSold(context.Background(), db, "d1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already-sold idea, got %v", err)
	}
	// Buyer attribution is unchanged.
	if err := db.First(&got, "id = ?", "d1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *got.PurchasedBy != "u1" {
		t.Fatalf("buyer overwritten: %+v", got)
	}
}

func TestMarkIdeaSold_MissingRow(t *testing.T) {
	db := newDailyRepoDB(t, &domain.DailyIdea{})
	if err := MarkIdeaSold(context.Background(), db, "ghost", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
