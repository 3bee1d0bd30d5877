package services

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

func newPurchaseServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("purchase_svc_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.DailyIdea{}, &domain.OwnedIdea{}, &domain.Profile{}, &domain.Purchase{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// ----- Fake payments -----

type fakePayments struct {
	createCalls  int
	createdCents int
	createdCurr  string
	orderID      string
	createErr    error

	captureCalls int
	receipt      []byte
	captureErr   error
}

func (p *fakePayments) CreateOrder(ctx context.Context, cents int, currency string) (string, error) {
	p.createCalls++
	p.createdCents = cents
	p.createdCurr = currency
	if p.createErr != nil {
		return "", p.createErr
	}
	if p.orderID == "" {
		p.orderID = "ORDER-1"
	}
	return p.orderID, nil
}

func (p *fakePayments) CaptureOrder(ctx context.Context, orderID string) ([]byte, error) {
	p.captureCalls++
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	if p.receipt == nil {
		p.receipt = []byte(`{"status":"COMPLETED"}`)
	}
	return p.receipt, nil
}

func seedDailyIdea(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	row := domain.DailyIdea{
		ID:          id,
		IdeaData:    []byte(testReportJSON),
		Status:      domain.IdeaAvailable,
		GeneratedAt: time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed daily idea: %v", err)
	}
}

// ----- Tests -----

func TestCreateOrder_DefaultsApplied(t *testing.T) {
	pay := &fakePayments{}
	s := NewPurchaseService(newPurchaseServiceDB(t), pay, 2900, "USD")

	id, err := s.CreateOrder(context.Background(), "u1", 0, "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if id != "ORDER-1" {
		t.Fatalf("order id = %q", id)
	}
	if pay.createdCents != 2900 || pay.createdCurr != "USD" {
		t.Fatalf("defaults not applied: %d %s", pay.createdCents, pay.createdCurr)
	}
}

func TestCreateOrder_InvalidCurrency(t *testing.T) {
	s := NewPurchaseService(newPurchaseServiceDB(t), &fakePayments{}, 2900, "USD")
	if _, err := s.CreateOrder(context.Background(), "u1", 100, "DOLLARS"); err == nil {
		t.Fatal("expected error for invalid currency")
	}
}

func TestCapture_FullFulfillment(t *testing.T) {
	db := newPurchaseServiceDB(t)
	pay := &fakePayments{}
	s := NewPurchaseService(db, pay, 2900, "USD")
	seedDailyIdea(t, db, "d1")

	ideaID := "d1"
	res, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Replayed {
		t.Fatalf("unexpected replay flag: %+v", res)
	}
	if res.NewIdeaID == nil {
		t.Fatal("expected owned-idea clone")
	}

	// Daily idea is sold to u1.
	var daily domain.DailyIdea
	if err := db.First(&daily, "id = ?", "d1").Error; err != nil {
		t.Fatalf("load daily: %v", err)
	}
	if daily.Status != domain.IdeaSold || daily.PurchasedBy == nil || *daily.PurchasedBy != "u1" {
		t.Fatalf("daily idea not sold correctly: %+v", daily)
	}

	// Clone fanned out into the buyer's collection.
	var owned domain.OwnedIdea
	if err := db.First(&owned, "id = ?", *res.NewIdeaID).Error; err != nil {
		t.Fatalf("load owned: %v", err)
	}
	if owned.UserID != "u1" || owned.IdeaTitle != "PlantPal" || owned.Problem == "" {
		t.Fatalf("clone mismatch: %+v", owned)
	}

	// Buyer promoted to pro.
	var profile domain.Profile
	if err := db.First(&profile, "id = ?", "u1").Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.SubscriptionStatus != domain.TierPro {
		t.Fatalf("expected pro tier, got %q", profile.SubscriptionStatus)
	}

	// Claim row completed with receipt and clone id.
	var purchase domain.Purchase
	if err := db.First(&purchase, "order_id = ?", "ORDER-1").Error; err != nil {
		t.Fatalf("load purchase: %v", err)
	}
	if purchase.Status != domain.PurchaseCompleted || purchase.OwnedIdeaID == nil {
		t.Fatalf("claim not completed: %+v", purchase)
	}
}

func TestCapture_ReplayServesRecordedOutcome(t *testing.T) {
	db := newPurchaseServiceDB(t)
	pay := &fakePayments{}
	s := NewPurchaseService(db, pay, 2900, "USD")
	seedDailyIdea(t, db, "d1")

	ideaID := "d1"
	first, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID)
	if err != nil {
		t.Fatalf("first Capture: %v", err)
	}

	second, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID)
	if err != nil {
		t.Fatalf("replay Capture: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replayed result")
	}
	if second.NewIdeaID == nil || *second.NewIdeaID != *first.NewIdeaID {
		t.Fatalf("replay returned different clone: %+v vs %+v", second, first)
	}
	// Provider charged exactly once.
	if pay.captureCalls != 1 {
		t.Fatalf("provider captured %d times, want 1", pay.captureCalls)
	}
	// No second clone, no second sale.
	var ownedCount int64
	if err := db.Model(&domain.OwnedIdea{}).Count(&ownedCount).Error; err != nil {
		t.Fatalf("count owned: %v", err)
	}
	if ownedCount != 1 {
		t.Fatalf("expected 1 owned idea, got %d", ownedCount)
	}
}

func TestCapture_WrongUserReplayHidden(t *testing.T) {
	db := newPurchaseServiceDB(t)
	s := NewPurchaseService(db, &fakePayments{}, 2900, "USD")

	if _, err := s.Capture(context.Background(), "u1", "ORDER-1", nil); err != nil {
		t.Fatalf("first Capture: %v", err)
	}
	if _, err := s.Capture(context.Background(), "u2", "ORDER-1", nil); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestCapture_ProviderFailureThenDeclinedReplay(t *testing.T) {
	db := newPurchaseServiceDB(t)
	pay := &fakePayments{captureErr: errors.New("ORDER_NOT_APPROVED")}
	s := NewPurchaseService(db, pay, 2900, "USD")

	if _, err := s.Capture(context.Background(), "u1", "ORDER-1", nil); err == nil {
		t.Fatal("expected provider error")
	}

	// The claim is recorded as failed; retry replays the decline.
	if _, err := s.Capture(context.Background(), "u1", "ORDER-1", nil); !errors.Is(err, ErrCaptureDeclined) {
		t.Fatalf("expected ErrCaptureDeclined on retry, got %v", err)
	}
	if pay.captureCalls != 1 {
		t.Fatalf("provider called %d times, want 1", pay.captureCalls)
	}

	// No entitlement granted on failure.
	var count int64
	if err := db.Model(&domain.Profile{}).Count(&count).Error; err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if count != 0 {
		t.Fatalf("profile created despite failed capture")
	}
}

func TestCapture_LostRaceRejectedWithoutSideEffects(t *testing.T) {
	db := newPurchaseServiceDB(t)
	s := NewPurchaseService(db, &fakePayments{}, 2900, "USD")
	seedDailyIdea(t, db, "d1")

	// First buyer takes the idea.
	ideaID := "d1"
	if _, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID); err != nil {
		t.Fatalf("winner Capture: %v", err)
	}

	// Second buyer captures a different order against the same idea.
	s2 := NewPurchaseService(db, &fakePayments{orderID: "ORDER-2"}, 2900, "USD")
	res, err := s2.Capture(context.Background(), "u2", "ORDER-2", &ideaID)
	if !errors.Is(err, ErrIdeaSold) {
		t.Fatalf("loser Capture: want ErrIdeaSold, got res=%+v err=%v", res, err)
	}

	// Loser must not be promoted.
	var profileCount int64
	if err := db.Model(&domain.Profile{}).Where("id = ?", "u2").Count(&profileCount).Error; err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if profileCount != 0 {
		t.Fatal("loser profile mutated despite rejected capture")
	}

	// Loser must not receive a clone.
	var ownedCount int64
	if err := db.Model(&domain.OwnedIdea{}).Where("user_id = ?", "u2").Count(&ownedCount).Error; err != nil {
		t.Fatalf("count owned: %v", err)
	}
	if ownedCount != 0 {
		t.Fatal("loser received a clone despite rejected capture")
	}

	// The loser's claim is recorded as failed and replays the rejection.
	var purchase domain.Purchase
	if err := db.First(&purchase, "order_id = ?", "ORDER-2").Error; err != nil {
		t.Fatalf("load purchase: %v", err)
	}
	if purchase.Status != domain.PurchaseFailed {
		t.Fatalf("claim status = %q, want failed", purchase.Status)
	}
	if _, err := s2.Capture(context.Background(), "u2", "ORDER-2", &ideaID); !errors.Is(err, ErrIdeaSold) {
		t.Fatalf("retry: want ErrIdeaSold replay, got %v", err)
	}

	// Original buyer keeps the idea.
	var daily domain.DailyIdea
	if err := db.First(&daily, "id = ?", "d1").Error; err != nil {
		t.Fatalf("load daily: %v", err)
	}
	if daily.PurchasedBy == nil || *daily.PurchasedBy != "u1" {
		t.Fatalf("buyer attribution changed: %+v", daily)
	}
}

func TestCapture_MissingIdeaRejected(t *testing.T) {
	db := newPurchaseServiceDB(t)
	s := NewPurchaseService(db, &fakePayments{}, 2900, "USD")

	ideaID := "ghost"
	if _, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID); !errors.Is(err, ErrIdeaSold) {
		t.Fatalf("want ErrIdeaSold for missing idea, got %v", err)
	}

	// No entitlement, no claim completion.
	var profileCount int64
	if err := db.Model(&domain.Profile{}).Count(&profileCount).Error; err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if profileCount != 0 {
		t.Fatal("profile mutated despite rejected capture")
	}
	var purchase domain.Purchase
	if err := db.First(&purchase, "order_id = ?", "ORDER-1").Error; err != nil {
		t.Fatalf("load purchase: %v", err)
	}
	if purchase.Status != domain.PurchaseFailed {
		t.Fatalf("claim status = %q, want failed", purchase.Status)
	}
}

func TestCapture_UnreadableStoredReportSkipsCloneOnly(t *testing.T) {
	db := newPurchaseServiceDB(t)
	s := NewPurchaseService(db, &fakePayments{}, 2900, "USD")

	// An available idea whose stored payload no longer parses as a report.
	row := domain.DailyIdea{
		ID:          "d-broken",
		IdeaData:    []byte(`{"not":"a report"}`),
		Status:      domain.IdeaAvailable,
		GeneratedAt: time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed broken idea: %v", err)
	}

	ideaID := "d-broken"
	res, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.NewIdeaID != nil {
		t.Fatal("no clone expected from an unreadable report")
	}

	// The sale itself stands: idea sold, buyer promoted, claim completed.
	var daily domain.DailyIdea
	if err := db.First(&daily, "id = ?", "d-broken").Error; err != nil {
		t.Fatalf("load daily: %v", err)
	}
	if daily.Status != domain.IdeaSold {
		t.Fatalf("idea status = %q, want sold", daily.Status)
	}
	var purchase domain.Purchase
	if err := db.First(&purchase, "order_id = ?", "ORDER-1").Error; err != nil {
		t.Fatalf("load purchase: %v", err)
	}
	if purchase.Status != domain.PurchaseCompleted || purchase.OwnedIdeaID != nil {
		t.Fatalf("claim = %+v, want completed without clone id", purchase)
	}

	// A replay serves the recorded outcome, still without a clone and
	// without being mistaken for a lost race.
	second, err := s.Capture(context.Background(), "u1", "ORDER-1", &ideaID)
	if err != nil {
		t.Fatalf("replay Capture: %v", err)
	}
	if !second.Replayed || second.NewIdeaID != nil {
		t.Fatalf("replay = %+v, want replayed without clone", second)
	}
}

func TestCapture_PureUpgradeWithoutIdea(t *testing.T) {
	db := newPurchaseServiceDB(t)
	s := NewPurchaseService(db, &fakePayments{}, 2900, "USD")

	res, err := s.Capture(context.Background(), "u1", "ORDER-1", nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.NewIdeaID != nil {
		t.Fatalf("unexpected clone for pure upgrade: %+v", res)
	}
	var profile domain.Profile
	if err := db.First(&profile, "id = ?", "u1").Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.SubscriptionStatus != domain.TierPro {
		t.Fatalf("expected pro tier, got %q", profile.SubscriptionStatus)
	}
}
