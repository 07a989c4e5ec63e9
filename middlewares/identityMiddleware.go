package middlewares

import (
	"os"

	"github.com/cpsportal/catalog_backend/config"
	"github.com/cpsportal/catalog_backend/utils"
	"github.com/gin-gonic/gin"
)

// IdentityMiddleware resolves the acting user from the auth proxy headers
// and stores it on the request context. In local dev mode the identity
// comes from environment variables instead.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, userName := resolveIdentity(c)

		ctx := utils.SetUserIdInContext(c.Request.Context(), userId)
		ctx = utils.SetUserNameInContext(ctx, userName)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context) (string, string) {
	if config.LocalDevMode() {
		userId := firstNonEmpty(os.Getenv("LOCAL_USER"), os.Getenv("USER"), "local_dev_user")
		userName := firstNonEmpty(os.Getenv("LOCAL_USER_NAME"), userId)
		return userId, userName
	}

	email := c.GetHeader("X-Forwarded-Email")
	userName := firstNonEmpty(c.GetHeader("X-Forwarded-Preferred-Username"), email)
	userId := firstNonEmpty(c.GetHeader("X-Forwarded-User"), email)

	if userId == "" {
		userId = firstNonEmpty(
			c.GetHeader("X-Databricks-User-Id"),
			c.GetHeader("Databricks-User-Id"),
			c.GetHeader("X-User-Id"),
			os.Getenv("DATABRICKS_USER_NAME"),
			os.Getenv("DATABRICKS_USERNAME"),
			"unknown_user",
		)
	}
	if userName == "" {
		userName = firstNonEmpty(
			c.GetHeader("X-Databricks-User-Name"),
			c.GetHeader("Databricks-User-Name"),
			c.GetHeader("X-User-Name"),
			userId,
		)
	}
	return userId, userName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
