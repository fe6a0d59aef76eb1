package handlers

// AppHandlers holds every handler of the application.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	RatingHandler     *RatingHandler
	ModerationHandler *ModerationHandler
	AdminHandler      *AdminHandler
	MetaHandler       *MetaHandler
	PagesHandler      *PagesHandler
}
