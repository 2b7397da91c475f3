package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"noticias/common"
	"noticias/models"
)

const currentUserKey = "current_user"

// CurrentUser returns the authenticated user placed in the context by
// RequireAuth or OptionalAuth, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.Usuario {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.Usuario)
	return user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (a *AuthModule) resolveUser(token string) *models.Usuario {
	claims, err := ParseToken(a.secret, token)
	if err != nil || claims.Subject == "" {
		return nil
	}
	user := a.getUserByUsernameOrEmail(claims.Subject)
	if user == nil || !user.Activo {
		return nil
	}
	return user
}

// RequireAuth rejects requests without a valid bearer token for an active
// user.
func (a *AuthModule) RequireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		common.AbortWithError(c, common.ErrUnauthorized)
		return
	}
	user := a.resolveUser(token)
	if user == nil {
		common.AbortWithError(c, common.ErrUnauthorized)
		return
	}
	c.Set(currentUserKey, user)
	c.Next()
}

// OptionalAuth resolves the user when a valid token is present but lets
// anonymous requests through. Used by article creation, which permits
// anonymous authors.
func (a *AuthModule) OptionalAuth(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if user := a.resolveUser(token); user != nil {
			c.Set(currentUserKey, user)
		}
	}
	c.Next()
}

// RequireRole builds a middleware allowing only users whose role is one of
// roles. Must run after RequireAuth.
func (a *AuthModule) RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			common.AbortWithError(c, common.ErrUnauthorized)
			return
		}
		rol := RoleOf(a.db, user)
		for _, allowed := range roles {
			if rol == allowed {
				c.Next()
				return
			}
		}
		common.AbortWithError(c, common.ErrForbidden)
	}
}

// Authorize is the single mutation gate for articles: elevated roles may
// touch anything, everyone else only their own articles.
func Authorize(db *gorm.DB, user *models.Usuario, noticia *models.Noticia) error {
	if user == nil {
		return common.ErrUnauthorized
	}
	if RoleOf(db, user).Elevated() {
		return nil
	}
	if noticia.AutorID != nil && *noticia.AutorID == user.ID {
		return nil
	}
	return common.ErrForbidden
}
