// Idea HTTP handlers.
//
// This file exposes REST endpoints for generated idea reports:
//   - POST /ideas/generate   (one-off report, never cached)
//   - POST /ideas/daily      (idea of the day; cached for the freshness window)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The daily endpoint additionally
// applies entitlement gating: the premium sections of the report (analysis,
// goToMarket, value_ladder) are omitted for callers without a pro profile.
// Entitlement is re-read from storage on every request, never from the client.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/genai"
	"github.com/upstarthq/idealab-backend/internal/http/middleware"
	"github.com/upstarthq/idealab-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// IdeaService defines generated-report operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IdeaService interface {
	// Generate produces a one-off report without touching the daily cache.
	Generate(ctx context.Context) ([]byte, error)
	// Daily returns the current idea of the day, regenerating when stale,
	// sold, absent, or when forceNew is set. The bool reports whether a new
	// idea was generated (false for a cache hit).
	Daily(ctx context.Context, forceNew bool) (*domain.DailyIdea, bool, error)
}

// PurchaseService defines checkout operations consumed by HTTP handlers.
type PurchaseService interface {
	// CreateOrder opens a provider order and returns its id.
	CreateOrder(ctx context.Context, userID string, cents int, currency string) (string, error)
	// Capture finalizes payment for orderID and fulfills the purchase.
	Capture(ctx context.Context, userID, orderID string, ideaID *string) (*services.CaptureResult, error)
}

// OwnedIdeaService defines saved-collection operations consumed by HTTP
// handlers.
type OwnedIdeaService interface {
	// Save adds one idea to the user's collection.
	Save(ctx context.Context, userID string, in services.SaveIdeaInput) (*domain.OwnedIdea, error)
	// ListPage returns a page of the user's ideas and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.OwnedIdea, int64, error)
	// Get returns one idea owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.OwnedIdea, error)
	// Delete removes one idea owned by userID.
	Delete(ctx context.Context, userID, id string) error
	// Search ranks the user's ideas against a free-text query.
	Search(ctx context.Context, userID, query string, limit int) ([]domain.OwnedIdea, error)
}

// ProfileService defines profile and entitlement operations consumed by HTTP
// handlers.
type ProfileService interface {
	// Get returns the user's profile, creating a free-tier row on first touch.
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// Update edits the profile's editable fields.
	Update(ctx context.Context, userID string, in services.UpdateProfileInput) (*domain.Profile, error)
	// IsPro re-reads the subscription tier from storage.
	IsPro(ctx context.Context, userID string) (bool, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for ideas, checkout, collections, and
// profiles. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	ideaSvc     IdeaService
	purchaseSvc PurchaseService
	ownedSvc    OwnedIdeaService
	profileSvc  ProfileService
}

// New constructs a Handlers instance bound to the given services.
func New(ideaSvc IdeaService, purchaseSvc PurchaseService, ownedSvc OwnedIdeaService, profileSvc ProfileService) *Handlers {
	return &Handlers{
		ideaSvc:     ideaSvc,
		purchaseSvc: purchaseSvc,
		ownedSvc:    ownedSvc,
		profileSvc:  profileSvc,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header (tests use
// it), and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// DailyIdeaRequest is the JSON payload for fetching the idea of the day.
type DailyIdeaRequest struct {
	// ForceNew bypasses the daily cache and generates a fresh idea.
	ForceNew bool `json:"forceNew" example:"false"`
}

// DailyIdeaResponse is the idea-of-the-day report split into its sections.
// The premium sections (Analysis, GoToMarket, ValueLadder) are omitted for
// callers without a pro subscription.
type DailyIdeaResponse struct {
	ID            string          `json:"id"`
	Idea          genai.IdeaCore  `json:"idea"`
	Analysis      json.RawMessage `json:"analysis,omitempty"`
	Trends        json.RawMessage `json:"trends"`
	GoToMarket    json.RawMessage `json:"goToMarket,omitempty"`
	Attributes    json.RawMessage `json:"idea_attributes"`
	HealthMetrics json.RawMessage `json:"idea_health_metrics"`
	ValueLadder   json.RawMessage `json:"value_ladder,omitempty"`
	Status        string          `json:"status"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

//
// Handlers
//

// GenerateIdea godoc
// @ID          generateIdea
// @Summary     Generate a one-off idea report
// @Description Produces a fresh startup idea report without touching the daily cache. The full report is returned regardless of subscription tier.
// @Tags        Ideas
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  genai.IdeaReport
// @Failure     500  {object}  handlers.ErrorResponse "Generation failed"
// @Router      /ideas/generate [post]
func (h *Handlers) GenerateIdea(c *gin.Context) {
	raw, err := h.ideaSvc.Generate(c.Request.Context())
	if err != nil {
		middleware.ObserveGeneration("error")
		fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		return
	}
	middleware.ObserveGeneration("generated")
	c.Data(http.StatusOK, "application/json", raw)
}

// DailyIdea godoc
// @ID          dailyIdea
// @Summary     Get the idea of the day
// @Description Returns the cached idea of the day, generating a new one when the cache is stale or empty. Premium sections are omitted for free-tier callers.
// @Tags        Ideas
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.DailyIdeaRequest  false  "Options"
//
// @Success     200  {object}  handlers.DailyIdeaResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Generation failed"
// @Router      /ideas/daily [post]
func (h *Handlers) DailyIdea(c *gin.Context) {
	var req DailyIdeaRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	ctx := c.Request.Context()
	idea, generated, err := h.ideaSvc.Daily(ctx, req.ForceNew)
	if err != nil {
		middleware.ObserveGeneration("error")
		fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		return
	}
	if generated {
		middleware.ObserveGeneration("generated")
	} else {
		middleware.ObserveGeneration("cache_hit")
	}

	report, err := genai.ParseReport(idea.IdeaData)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "stored report is unreadable")
		return
	}

	resp := DailyIdeaResponse{
		ID:            idea.ID,
		Idea:          report.Idea,
		Analysis:      report.Analysis,
		Trends:        report.Trends,
		GoToMarket:    report.GoToMarket,
		Attributes:    report.Attributes,
		HealthMetrics: report.HealthMetrics,
		ValueLadder:   report.ValueLadder,
		Status:        idea.Status,
		GeneratedAt:   idea.GeneratedAt,
	}

	// Entitlement is re-read from storage on every request. A lookup failure
	// degrades to the free view rather than leaking premium content.
	pro, err := h.profileSvc.IsPro(ctx, userID(c))
	if err != nil || !pro {
		resp.Analysis = nil
		resp.GoToMarket = nil
		resp.ValueLadder = nil
	}

	ok(c, http.StatusOK, resp)
}
