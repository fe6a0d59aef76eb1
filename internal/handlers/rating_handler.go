package handlers

import (
	"net/http"

	"addons_backend/internal/middleware"
	"addons_backend/internal/services"
	"addons_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	*BaseHandler
	ratingService services.RatingService
	limiter       *middleware.RateLimiter
}

func NewRatingHandler(base *BaseHandler, ratingService services.RatingService, limiter *middleware.RateLimiter) *RatingHandler {
	return &RatingHandler{
		BaseHandler:   base,
		ratingService: ratingService,
		limiter:       limiter,
	}
}

func (h *RatingHandler) RegisterRoutes(r *gin.RouterGroup) {
	public := r.Group("/ratings/rating")
	{
		public.GET("/", h.ListRatings)
		public.GET("/:id/", h.GetRating)
	}

	writes := r.Group("/ratings/rating")
	writes.Use(middleware.RequireAuth())
	if h.limiter != nil {
		writes.Use(h.limiter.Handler())
	}
	{
		writes.POST("/", h.CreateRating)
		writes.PATCH("/:id/", h.UpdateRating)
		writes.DELETE("/:id/", h.DeleteRating)
		writes.POST("/:id/reply/", h.ReplyToRating)
		writes.POST("/:id/flag/", h.FlagRating)
	}
}

// --- Public handlers ---

func (h *RatingHandler) ListRatings(c *gin.Context) {
	var query dto.RatingListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.ratingService.List(c.Request.Context(), h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RatingHandler) GetRating(c *gin.Context) {
	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	rating, err := h.ratingService.Get(c.Request.Context(), h.GetDB(c), ratingID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// --- Protected handlers ---

func (h *RatingHandler) CreateRating(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateRatingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	req.IPAddress = c.ClientIP()

	rating, err := h.ratingService.Create(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}

func (h *RatingHandler) UpdateRating(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.UpdateRatingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	rating, err := h.ratingService.Edit(c.Request.Context(), h.GetDB(c), userID, ratingID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

func (h *RatingHandler) DeleteRating(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.ratingService.Delete(c.Request.Context(), h.GetDB(c), userID, ratingID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReplyToRating answers 201 for a new reply and 200 when an existing one was updated.
func (h *RatingHandler) ReplyToRating(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.ReplyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	reply, created, err := h.ratingService.Reply(c.Request.Context(), h.GetDB(c), userID, ratingID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, reply)
}

func (h *RatingHandler) FlagRating(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.FlagRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	flag, err := h.ratingService.Flag(c.Request.Context(), h.GetDB(c), userID, ratingID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, flag)
}
