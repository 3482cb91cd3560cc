package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/orders"
)

// respondError traduit les erreurs métier en codes HTTP.
func respondError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *orders.ValidationError:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
	case *orders.NotFoundError:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Message})
	case *orders.ForbiddenError:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Message})
	case *orders.ConflictError:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne du serveur"})
	}
}
