package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PayPalSuccess est le retour d'approbation PayPal (?token=<order paypal>).
func PayPalSuccess(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre token manquant"})
		return
	}

	order, err := Orders.CapturePaymentByTransactionID(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "COMPLETED", "order": order.View()})
}

// PayPalCancel est le retour d'annulation PayPal.
func PayPalCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "CANCELLED"})
}

// StripeSuccess est le retour de session Stripe Checkout (?token=<session id>).
func StripeSuccess(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre token manquant"})
		return
	}

	order, err := Orders.CapturePaymentByTransactionID(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "COMPLETED", "order": order.View()})
}

// StripeCancel est le retour d'annulation Stripe.
func StripeCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "CANCELLED"})
}
