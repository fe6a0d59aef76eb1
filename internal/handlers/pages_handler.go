package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"addons_backend/internal/middleware"
	"addons_backend/internal/services"
	"addons_backend/internal/services/dto"
	"addons_backend/pkg/apperrors"
	"addons_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var pageTemplates embed.FS

var appNames = map[string]string{
	middleware.AppFirefox: "Firefox",
	middleware.AppAndroid: "Firefox for Android",
}

// PagesHandler renders the locale-prefixed web pages.
type PagesHandler struct {
	*BaseHandler
	ratingService services.RatingService
	defaultLocale string
	templates     *template.Template
}

func NewPagesHandler(base *BaseHandler, ratingService services.RatingService, defaultLocale string) *PagesHandler {
	return &PagesHandler{
		BaseHandler:   base,
		ratingService: ratingService,
		defaultLocale: defaultLocale,
		templates:     template.Must(template.ParseFS(pageTemplates, "templates/*.html")),
	}
}

func (h *PagesHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/:locale/about", h.About)
	r.GET("/:locale/:app/pages/appversions", h.AppVersions)
	r.GET("/:locale/:app/addon/:slug/reviews/:id", h.RatingDetail)
}

type pageData struct {
	Locale     string
	App        string
	AppName    string
	SiteNotice string
	Title      string
	AddonName  string
	Rating     *dto.RatingResponse
}

func (h *PagesHandler) newPageData(c *gin.Context, title string) *pageData {
	app := middleware.CurrentApp(c)
	return &pageData{
		Locale:     middleware.CurrentLocale(c, h.defaultLocale),
		App:        app,
		AppName:    appNames[app],
		SiteNotice: c.GetString(contextkeys.SiteNotice),
		Title:      title,
	}
}

func (h *PagesHandler) render(c *gin.Context, status int, name string, data *pageData) {
	c.Render(status, render.HTML{Template: h.templates, Name: name, Data: data})
}

func (h *PagesHandler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", h.newPageData(c, "About"))
}

func (h *PagesHandler) AppVersions(c *gin.Context) {
	data := h.newPageData(c, "Application Versions")
	h.render(c, http.StatusOK, "appversions.html", data)
}

func (h *PagesHandler) RatingDetail(c *gin.Context) {
	ratingID, err := ParseParamID(c, "id")
	if err != nil {
		h.renderError(c, err)
		return
	}

	addon, rating, err := h.ratingService.Detail(c.Request.Context(), h.GetDB(c), c.Param("slug"), ratingID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	data := h.newPageData(c, addon.DefaultName)
	data.AddonName = addon.DefaultName
	data.Rating = rating
	h.render(c, http.StatusOK, "rating_detail.html", data)
}

func (h *PagesHandler) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := apperrors.AsAppError(err); ok {
		status = appErr.HTTPCode
	}
	data := h.newPageData(c, http.StatusText(status))
	h.render(c, status, "error.html", data)
}
