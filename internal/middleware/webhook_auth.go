package middleware

import (
	"crypto/subtle"

	"tiendapos/internal/apierror"

	"github.com/gin-gonic/gin"
)

// WebhookBasicAuth guards the payment gateway callback with the credentials
// from config. Empty credentials reject every request.
func WebhookBasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || username == "" || password == "" ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="payments"`)
			AbortWithError(c, apierror.New(apierror.KindUnauthorized, "Credenciales del webhook invalidas"))
			return
		}
		c.Next()
	}
}
