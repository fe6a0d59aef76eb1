package contextkeys

type contextKey string

// DBContextKey stores the *gorm.DB (pool or transaction) for a request.
const DBContextKey = contextKey("db")

// Gin context keys shared by middleware and handlers.
const (
	UserIDKey    = "userID"
	RoleKey      = "role"
	IsAPIKey     = "is_api"
	RequestIDKey = "request_id"
	LocaleKey    = "locale"
	AppKey       = "app"
	SiteNotice   = "site_notice"
)
