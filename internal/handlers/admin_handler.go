package handlers

import (
	"net/http"

	"addons_backend/internal/middleware"
	"addons_backend/internal/models"
	"addons_backend/internal/services"
	"addons_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	ratingService services.RatingService
	siteService   services.SiteService
}

func NewAdminHandler(base *BaseHandler, ratingService services.RatingService, siteService services.SiteService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   base,
		ratingService: ratingService,
		siteService:   siteService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.POST("/ratings/:id/undelete/", h.UndeleteRating)
		admin.GET("/site-notice/", h.GetSiteNotice)
		admin.PUT("/site-notice/", h.SetSiteNotice)
	}
}

func (h *AdminHandler) UndeleteRating(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	db := h.GetDB(c)
	if err := h.ratingService.Undelete(c.Request.Context(), db, adminID, ratingID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	rating, err := h.ratingService.Get(c.Request.Context(), db, ratingID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

func (h *AdminHandler) GetSiteNotice(c *gin.Context) {
	notice, err := h.siteService.Notice(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

func (h *AdminHandler) SetSiteNotice(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SiteNoticeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.siteService.SetNotice(c.Request.Context(), db, adminID, req.Notice); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	notice, err := h.siteService.Notice(c.Request.Context(), db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notice": notice})
}
