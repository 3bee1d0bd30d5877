// Package services – PurchaseService
//
// This file implements PurchaseService, which owns the payment flow: creating
// provider orders and capturing approved ones. Capture is a small saga. The
// order id is claimed in the purchases table before the provider call, so a
// duplicate capture request (double click, client retry, webhook replay)
// finds the claim and replays the recorded outcome instead of re-running the
// provider call or the fulfillment side effects.
//
// Fulfillment on first successful capture, in one transaction:
//   - the targeted daily idea (if any) is conditionally marked sold and
//     cloned into the buyer's collection,
//   - the buyer's profile is promoted to the pro tier,
//   - the claim row is completed with the provider receipt.
//
// A capture that targets a sold or missing daily idea is rejected: the
// transaction rolls back, the claim is marked failed, and no profile change
// survives. Retries of such an order replay ErrIdeaSold.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/genai"
	"github.com/upstarthq/idealab-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Payments is the payment provider contract required by PurchaseService.
// Implemented by paypal.Client; faked in tests.
type Payments interface {
	CreateOrder(ctx context.Context, cents int, currency string) (string, error)
	CaptureOrder(ctx context.Context, orderID string) ([]byte, error)
}

// CaptureResult is the outcome of a capture, fresh or replayed.
type CaptureResult struct {
	OrderID   string          `json:"order_id"`
	Receipt   json.RawMessage `json:"receipt"`
	NewIdeaID *string         `json:"new_idea_id,omitempty"`
	// Replayed reports that this result was served from a previous capture
	// of the same order.
	Replayed bool `json:"-"`
}

// PurchaseService coordinates provider orders and the capture saga.
type PurchaseService struct {
	DB       *gorm.DB
	Payments Payments

	// PriceCents and Currency are the defaults applied when the client does
	// not specify an amount.
	PriceCents int
	Currency   string
}

// NewPurchaseService constructs a PurchaseService with the given defaults.
func NewPurchaseService(db *gorm.DB, p Payments, priceCents int, currency string) *PurchaseService {
	return &PurchaseService{DB: db, Payments: p, PriceCents: priceCents, Currency: currency}
}

// CreateOrder creates a provider order and returns its id. Zero cents or a
// blank currency fall back to the configured defaults; the price is never
// taken from the client below the configured floor semantics, it is either
// the default or an explicit server-validated amount.
func (s *PurchaseService) CreateOrder(ctx context.Context, userID string, cents int, currency string) (string, error) {
	tr := otel.Tracer("services/PurchaseService")
	ctx, span := tr.Start(ctx, "CreateOrder",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if cents <= 0 {
		cents = s.PriceCents
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.Currency
	}
	if len(currency) != 3 {
		return "", fmt.Errorf("invalid currency %q", currency)
	}
	return s.Payments.CreateOrder(ctx, cents, currency)
}

// Capture captures an approved order on behalf of userID and fulfils the
// purchase. ideaID optionally names the daily idea being bought.
//
// Error cases: ErrIdeaSold when the targeted idea is sold or missing,
// ErrCaptureInProgress when a concurrent capture holds the claim,
// ErrCaptureDeclined when a previous attempt failed at the provider,
// ErrOrderNotFound when the order was claimed by a different user.
func (s *PurchaseService) Capture(ctx context.Context, userID, orderID string, ideaID *string) (*CaptureResult, error) {
	tr := otel.Tracer("services/PurchaseService")
	ctx, span := tr.Start(ctx, "Capture",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("order.id", orderID),
		),
	)
	defer span.End()

	claim, err := repo.CreatePurchase(ctx, s.DB, orderID, userID, ideaID)
	if errors.Is(err, repo.ErrDuplicate) {
		return s.replay(ctx, userID, orderID)
	}
	if err != nil {
		return nil, err
	}

	receipt, err := s.Payments.CaptureOrder(ctx, orderID)
	if err != nil {
		// Keep the provider's answer on the claim so a retry replays the
		// decline instead of charging twice.
		_ = repo.FailPurchase(ctx, s.DB, claim.ID, []byte(err.Error()))
		return nil, fmt.Errorf("capture order %s: %w", orderID, err)
	}

	result := &CaptureResult{OrderID: orderID, Receipt: receipt}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ideaID != nil {
			ownedID, cerr := s.claimIdea(ctx, tx, userID, *ideaID)
			if cerr != nil {
				return cerr
			}
			result.NewIdeaID = ownedID
		}
		if perr := repo.UpdateSubscription(ctx, tx, userID, domain.TierPro); perr != nil {
			return perr
		}
		return repo.CompletePurchase(ctx, tx, claim.ID, receipt, result.NewIdeaID)
	})
	if errors.Is(err, ErrIdeaSold) {
		// The idea went to another buyer (or never existed); nothing from
		// the rolled-back transaction survives. Record the rejection on the
		// claim so a retry replays it instead of re-running fulfillment.
		span.SetAttributes(attribute.Bool("idea_sold", true))
		_ = repo.FailPurchase(ctx, s.DB, claim.ID, []byte(ErrIdeaSold.Error()))
		return nil, ErrIdeaSold
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// claimIdea marks the daily idea sold and clones it into the buyer's
// collection. A sold or missing idea returns ErrIdeaSold so the caller can
// abort the fulfillment transaction.
func (s *PurchaseService) claimIdea(ctx context.Context, tx *gorm.DB, userID, ideaID string) (*string, error) {
	idea, err := repo.GetDailyIdea(ctx, tx, ideaID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIdeaSold
	}
	if err != nil {
		return nil, err
	}

	if err := repo.MarkIdeaSold(ctx, tx, ideaID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrIdeaSold
		}
		return nil, err
	}

	report, err := genai.ParseReport(idea.IdeaData)
	if err != nil {
		// The stored report predates validation or was hand-edited. The sale
		// stands; the clone is skipped, loudly.
		log.Warn().
			Str("idea_id", ideaID).
			Str("user_id", userID).
			Err(err).
			Msg("stored daily idea report unreadable; purchase completes without clone")
		return nil, nil
	}

	owned, err := repo.CreateOwnedIdea(ctx, tx, &domain.OwnedIdea{
		UserID:        userID,
		IdeaTitle:     report.Idea.IdeaTitle,
		Problem:       report.Idea.Problem,
		Solution:      report.Idea.Solution,
		Market:        report.Idea.Market,
		Analysis:      []byte(report.Analysis),
		TrendData:     []byte(report.Trends),
		GoToMarket:    []byte(report.GoToMarket),
		Attributes:    []byte(report.Attributes),
		HealthMetrics: []byte(report.HealthMetrics),
		ValueLadder:   []byte(report.ValueLadder),
	})
	if err != nil {
		return nil, err
	}
	return &owned.ID, nil
}

// replay serves the recorded outcome of an already-claimed order.
func (s *PurchaseService) replay(ctx context.Context, userID, orderID string) (*CaptureResult, error) {
	existing, err := repo.GetPurchaseByOrderID(ctx, s.DB, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrOrderNotFound
	}

	switch existing.Status {
	case domain.PurchaseCompleted:
		return &CaptureResult{
			OrderID:   orderID,
			Receipt:   existing.CaptureBody,
			NewIdeaID: existing.OwnedIdeaID,
			Replayed:  true,
		}, nil
	case domain.PurchaseFailed:
		if string(existing.CaptureBody) == ErrIdeaSold.Error() {
			return nil, ErrIdeaSold
		}
		return nil, ErrCaptureDeclined
	default:
		return nil, ErrCaptureInProgress
	}
}
