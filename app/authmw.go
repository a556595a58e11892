package app

import (
	"net/http"

	"lablend/db"
	"lablend/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

// AuthRequired resolves the session cookie, confirms the user still
// exists and loads id/role into the context once.
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set("userID", u.ID)
		c.Set("userEmail", u.Email)
		c.Set("userName", u.DisplayName)
		c.Set("isAdmin", u.IsAdmin())
		c.Next()
	}
}

// AdminOnly gates on the role column set by AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get("userID"); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if isAdmin, _ := c.Get("isAdmin"); isAdmin != true {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
