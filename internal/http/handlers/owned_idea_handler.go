// Owned-idea HTTP handlers.
//
// This file exposes REST endpoints for a user's saved idea collection:
//   - POST   /ideas           (save an idea, optional founder-fit score)
//   - GET    /ideas           (list, paginated, ETag support)
//   - GET    /ideas/search    (ranked lexical search)
//   - GET    /ideas/{id}      (fetch one, owner-only)
//   - DELETE /ideas/{id}      (delete, owner-only)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/repo"
	"github.com/upstarthq/idealab-backend/internal/services"
	"github.com/upstarthq/idealab-backend/internal/utils"
)

//
// DTOs
//

// SaveIdeaRequest is the JSON payload for saving an idea into the collection.
// The section fields accept arbitrary JSON and are stored verbatim.
type SaveIdeaRequest struct {
	// IdeaTitle names the idea; when empty a title is derived from Problem.
	IdeaTitle string `json:"idea_title" example:"PlantPal"`
	Problem   string `json:"problem" example:"Houseplants die from inconsistent care"`
	Solution  string `json:"solution" example:"Smart watering sensors with an app"`
	Market    string `json:"market" example:"Urban millennials"`

	Analysis      json.RawMessage `json:"analysis,omitempty"`
	Trends        json.RawMessage `json:"trends,omitempty"`
	GoToMarket    json.RawMessage `json:"goToMarket,omitempty"`
	Attributes    json.RawMessage `json:"idea_attributes,omitempty"`
	HealthMetrics json.RawMessage `json:"idea_health_metrics,omitempty"`
	ValueLadder   json.RawMessage `json:"value_ladder,omitempty"`

	// FitScore is the founder-fit quiz result (0-100).
	FitScore *int `json:"fit_score,omitempty" example:"72"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListIdeasResponse wraps a page of owned ideas and pagination information.
type ListIdeasResponse struct {
	Ideas      []domain.OwnedIdea `json:"ideas"`
	Pagination Pagination         `json:"pagination"`
}

// SearchIdeasResponse wraps ranked search results.
type SearchIdeasResponse struct {
	Ideas []domain.OwnedIdea `json:"ideas"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// SaveIdea godoc
// @ID          saveIdea
// @Summary     Save an idea to the collection
// @Description Stores an idea report (with an optional founder-fit score) in the current user's collection.
// @Tags        Collection
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SaveIdeaRequest  true  "Idea payload"
//
// @Success     201  {object}  domain.OwnedIdea
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /ideas [post]
func (h *Handlers) SaveIdea(c *gin.Context) {
	var req SaveIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	idea, err := h.ownedSvc.Save(c.Request.Context(), userID(c), services.SaveIdeaInput{
		IdeaTitle:     req.IdeaTitle,
		Problem:       req.Problem,
		Solution:      req.Solution,
		Market:        req.Market,
		Analysis:      req.Analysis,
		TrendData:     req.Trends,
		GoToMarket:    req.GoToMarket,
		Attributes:    req.Attributes,
		HealthMetrics: req.HealthMetrics,
		ValueLadder:   req.ValueLadder,
		FitScore:      req.FitScore,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyIdea):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "idea needs a title or a problem statement")
		case errors.Is(err, services.ErrInvalidFitScore):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fit_score must be between 0 and 100")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, idea)
}

// ListIdeas godoc
// @ID          listIdeas
// @Summary     List saved ideas (paginated)
// @Description Returns a page of the user's saved ideas, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Collection
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListIdeasResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ideas [get]
func (h *Handlers) ListIdeas(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.ownedSvc.(*services.OwnedIdeaService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.OwnedIdeasStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"ideas:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.ownedSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListIdeasResponse{
		Ideas: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchIdeas godoc
// @ID          searchIdeas
// @Summary     Search saved ideas
// @Description Ranks the user's saved ideas against a free-text query, best match first.
// @Tags        Collection
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       q          query   string  true  "Search query"           example(coffee subscription)
// @Param       limit      query   int     false "Maximum results"        minimum(1) maximum(50) default(10)
//
// @Success     200  {object} handlers.SearchIdeasResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ideas/search [get]
func (h *Handlers) SearchIdeas(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	items, err := h.ownedSvc.Search(c.Request.Context(), userID(c), query, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SearchIdeasResponse{Ideas: items})
}

// GetIdea godoc
// @ID          getIdea
// @Summary     Get a saved idea
// @Description Returns one idea from the current user's collection.
// @Tags        Collection
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Idea ID (UUID)"         format(uuid)
//
// @Success     200  {object} domain.OwnedIdea
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Idea not found"
// @Router      /ideas/{id} [get]
func (h *Handlers) GetIdea(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "idea id must be a UUID")
		return
	}

	idea, err := h.ownedSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrIdeaNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "idea not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, idea)
}

// DeleteIdea godoc
// @ID          deleteIdea
// @Summary     Delete a saved idea
// @Description Removes one idea from the current user's collection.
// @Tags        Collection
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Idea ID (UUID)"         format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Idea not found"
// @Router      /ideas/{id} [delete]
func (h *Handlers) DeleteIdea(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "idea id must be a UUID")
		return
	}

	if err := h.ownedSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, services.ErrIdeaNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "idea not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
