package handlers

import (
	"net/http"

	"addons_backend/internal/middleware"
	"addons_backend/internal/models"
	"addons_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ModerationHandler serves the reviewer tools for flagged ratings.
type ModerationHandler struct {
	*BaseHandler
	ratingService services.RatingService
}

func NewModerationHandler(base *BaseHandler, ratingService services.RatingService) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:   base,
		ratingService: ratingService,
	}
}

func (h *ModerationHandler) RegisterRoutes(r *gin.RouterGroup) {
	reviewers := r.Group("/reviewers/ratings")
	reviewers.Use(middleware.RequireAuth(), middleware.RequireRoles(models.UserRoleReviewer, models.UserRoleAdmin))
	{
		reviewers.GET("/moderation/", h.GetModerationQueue)
		reviewers.POST("/:id/approve/", h.ApproveRating)
		reviewers.POST("/:id/delete/", h.DeleteRating)
		reviewers.GET("/log/", h.GetActivityLog)
	}
}

func (h *ModerationHandler) GetModerationQueue(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	queue, err := h.ratingService.ModerationQueue(c.Request.Context(), h.GetDB(c), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

// ApproveRating keeps the rating and clears its flags.
func (h *ModerationHandler) ApproveRating(c *gin.Context) {
	moderatorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.ratingService.Approve(c.Request.Context(), h.GetDB(c), moderatorID, ratingID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ModerationHandler) DeleteRating(c *gin.Context) {
	moderatorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.ratingService.ModerateDelete(c.Request.Context(), h.GetDB(c), moderatorID, ratingID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ModerationHandler) GetActivityLog(c *gin.Context) {
	addonID, err := ParseQueryID(c, "addon")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	page, pageSize := ParsePagination(c)

	log, err := h.ratingService.ActivityLog(c.Request.Context(), h.GetDB(c), addonID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}
