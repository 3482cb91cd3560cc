package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/orders"
	"autostore_back_end/internal/utils"
)

var Orders *orders.Service

type createOrderRequest struct {
	VehicleIDs      []int  `json:"vehicleIds" binding:"required"`
	ShippingAddress string `json:"shippingAddress" binding:"required"`
	PaymentMethod   string `json:"paymentMethod" binding:"required"`
	Notes           string `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder crée une commande avec réservation des véhicules.
func CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de commande invalides"})
		return
	}

	order, err := Orders.Create(c.Request.Context(), c.GetInt("user_id"),
		req.VehicleIDs, req.ShippingAddress, req.PaymentMethod, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	// Email de confirmation en arrière-plan, la commande n'attend pas le SMTP.
	go utils.SendPendingOrderEmail(c.GetString("email"), order)
	utils.LogAction(c, utils.ActionOrderCreate, utils.ResourceOrder,
		strconv.Itoa(order.ID), nil, gin.H{"total": order.Total, "status": order.Status})

	c.JSON(http.StatusCreated, order.View())
}

// GetOrders liste les commandes (paginé, les clients ne voient que les leurs).
func GetOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	list, err := Orders.FindAll(c.Request.Context(), c.GetInt("user_id"), c.GetString("role"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]models.OrderView, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "page": page, "limit": limit})
}

// GetOrder renvoie une commande si le demandeur y a droit.
func GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de commande invalide"})
		return
	}

	order, err := Orders.FindOne(c.Request.Context(), id, c.GetInt("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.View())
}

// CancelOrder annule une commande en attente et libère les véhicules.
func CancelOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de commande invalide"})
		return
	}

	var req cancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := Orders.Cancel(c.Request.Context(), id, c.GetInt("user_id"), c.GetString("role"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, utils.ActionOrderCancel, utils.ResourceOrder,
		strconv.Itoa(order.ID), nil, gin.H{"reason": req.Reason})
	c.JSON(http.StatusOK, order.View())
}

// CaptureOrder déclenche la capture du paiement d'une commande.
func CaptureOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de commande invalide"})
		return
	}

	order, err := Orders.CapturePayment(c.Request.Context(), id, c.GetInt("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, utils.ActionOrderCapture, utils.ResourceOrder,
		strconv.Itoa(order.ID), nil, gin.H{"status": order.Status})
	c.JSON(http.StatusOK, order.View())
}

// UpdateOrderStatus change le statut d'une commande (admin).
func UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de commande invalide"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut requis"})
		return
	}

	next := models.OrderStatus(req.Status)
	if !next.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + req.Status})
		return
	}

	order, err := Orders.UpdateStatus(c.Request.Context(), id, next)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, utils.ActionOrderStatusChange, utils.ResourceOrder,
		strconv.Itoa(order.ID), nil, gin.H{"status": order.Status})
	c.JSON(http.StatusOK, order.View())
}
