package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/service"
)

const contextUserKey = "user"

// AuthAccess guards the protected routes. It verifies the access cookie and
// attaches the embedded snapshot to the request context; no store read
// happens on this path. An expired token answers 401 so the client retries
// through the refresh endpoint; a malformed or tampered token answers 403.
func AuthAccess(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieAccess)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(http.StatusUnauthorized, "Please, login to continue!", nil))
			return
		}

		user, err := auth.VerifyAccess(token)
		if err != nil {
			abortErr(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireSetup rejects accounts that have not completed profile setup yet,
// keeping the social surface closed to half-registered accounts
func RequireSetup() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !user.Setup {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(http.StatusForbidden, "Please, complete your profile!", nil))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the snapshot attached by AuthAccess
func CurrentUser(c *gin.Context) domain.Snapshot {
	if value, ok := c.Get(contextUserKey); ok {
		if user, ok := value.(domain.Snapshot); ok {
			return user
		}
	}
	return domain.Snapshot{}
}

func abortErr(c *gin.Context, err error) {
	respondErr(c, err)
	c.Abort()
}
