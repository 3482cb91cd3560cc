package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/models"
)

// RequireAdmin doit être monté après AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
			c.Abort()
			return
		}
		c.Next()
	}
}
