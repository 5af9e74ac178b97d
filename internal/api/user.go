package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/planner"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

type apiKeysRequest struct {
	GoogleAPIKey    *string `json:"google_api_key" binding:"omitempty,max=256"`
	AlphaVantageKey *string `json:"alpha_vantage_key" binding:"omitempty,max=256"`
	RapidAPIKey     *string `json:"rapidapi_key" binding:"omitempty,max=256"`
}

func (h *Handler) handleCreatePlan(c *gin.Context) {
	var req planner.Request
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.planner.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		h.logger.Errorw("failed to generate financial plan", "user_id", userID(c), "error", err)
		writeError(c, http.StatusInternalServerError, "Error generating financial plan", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":       plan.Plan,
		"plan_id":    plan.ID,
		"created_at": plan.CreatedAt,
	})
}

func (h *Handler) handleListPlans(c *gin.Context) {
	plans, err := h.planner.List(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Errorw("failed to list financial plans", "user_id", userID(c), "error", err)
		writeError(c, http.StatusInternalServerError, "Error fetching financial plans", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *Handler) handleGetAPIKeys(c *gin.Context) {
	keys, err := h.users.GetAPIKeys(c.Request.Context(), userID(c))
	if errors.Is(err, store.ErrNotFound) {
		keys = &models.APIKeys{UserID: userID(c)}
	} else if err != nil {
		h.writeStoreError(c, "failed to load api keys", err)
		return
	}
	c.JSON(http.StatusOK, apiKeysResponse(keys.Masked()))
}

// handleSaveAPIKeys merges the supplied keys into the stored set. An empty string clears a key.
func (h *Handler) handleSaveAPIKeys(c *gin.Context) {
	var req apiKeysRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	keys, err := h.users.GetAPIKeys(ctx, userID(c))
	if errors.Is(err, store.ErrNotFound) {
		keys = &models.APIKeys{UserID: userID(c)}
	} else if err != nil {
		h.writeStoreError(c, "failed to load api keys", err)
		return
	}

	if req.GoogleAPIKey != nil {
		keys.GoogleAPIKey = strings.TrimSpace(*req.GoogleAPIKey)
	}
	if req.AlphaVantageKey != nil {
		keys.AlphaVantageKey = strings.TrimSpace(*req.AlphaVantageKey)
	}
	if req.RapidAPIKey != nil {
		keys.RapidAPIKey = strings.TrimSpace(*req.RapidAPIKey)
	}

	if err := h.users.SaveAPIKeys(ctx, keys); err != nil {
		h.writeStoreError(c, "failed to save api keys", err)
		return
	}
	c.JSON(http.StatusOK, apiKeysResponse(keys.Masked()))
}

func apiKeysResponse(keys models.APIKeys) gin.H {
	return gin.H{
		"google_api_key":    keys.GoogleAPIKey,
		"alpha_vantage_key": keys.AlphaVantageKey,
		"rapidapi_key":      keys.RapidAPIKey,
		"updated_at":        keys.UpdatedAt,
	}
}
