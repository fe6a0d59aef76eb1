package middleware

import (
	"regexp"
	"strconv"
	"strings"

	"addons_backend/internal/auth"
	"addons_backend/internal/logger"
	"addons_backend/internal/models"
	"addons_backend/pkg/apperrors"
	"addons_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// SessionCookieName holds the signed session token for web pages.
const SessionCookieName = "sessionid"

// Session auth still runs on the API endpoint that creates sessions.
var accountsAuthenticatePath = regexp.MustCompile(`^/api/v[345]/accounts/authenticate/?$`)

// SessionAuth reads the session cookie. A missing or invalid cookie leaves the
// request anonymous.
func SessionAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			if claims, err := tokens.Parse(cookie); err == nil {
				setIdentity(c, claims)
			} else {
				logger.CtxDebug(c.Request.Context(), "Ignoring invalid session cookie", "error", err.Error())
			}
		}
		c.Next()
	}
}

// AuthenticationWithoutAPI runs inner for web requests only, plus the
// accounts authenticate endpoint.
func AuthenticationWithoutAPI(inner gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAPI(c) || accountsAuthenticatePath.MatchString(c.Request.URL.Path) {
			inner(c)
			return
		}
		c.Next()
	}
}

// BearerAuth reads "Authorization: Bearer <token>". Requests without the header
// pass through; a bad token is rejected.
func BearerAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}

// RequireRoles - allows any of the given roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		roleVal, exists := c.Get(contextkeys.RoleKey)
		if !exists {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication credentials were not provided"))
			return
		}

		role, ok := roleVal.(models.UserRole)
		if !ok {
			roleStr, isString := roleVal.(string)
			if !isString {
				apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
				return
			}
			role = models.UserRole(roleStr)
		}

		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}

		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set(contextkeys.RoleKey, models.UserRole(claims.Role))
	ctx := logger.WithUserID(c.Request.Context(), strconv.FormatUint(uint64(claims.UserID), 10))
	c.Request = c.Request.WithContext(ctx)
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(contextkeys.UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok && id != 0
}
