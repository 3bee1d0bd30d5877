// Profile HTTP handlers.
//
// This file exposes REST endpoints for the user profile:
//   - GET /profile (read; creates a free-tier row on first touch)
//   - PUT /profile (edit name and skills)
//
// The subscription tier is intentionally absent from the update payload: it
// changes only through a completed purchase capture, server-side.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upstarthq/idealab-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for editing the profile.
type UpdateProfileRequest struct {
	FirstName         string `json:"first_name" binding:"max=100" example:"Ada"`
	LastName          string `json:"last_name" binding:"max=100" example:"Lovelace"`
	SkillsDescription string `json:"skills_description" binding:"max=2000" example:"Full-stack engineer, ex-fintech"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the current user's profile
// @Description Returns the profile, creating a default free-tier one on first access.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  domain.Profile
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Description Edits name and skills. The subscription tier cannot be changed here.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Profile fields"
//
// @Success     200  {object}  domain.Profile
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.profileSvc.Update(c.Request.Context(), userID(c), services.UpdateProfileInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		SkillsDescription: req.SkillsDescription,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
