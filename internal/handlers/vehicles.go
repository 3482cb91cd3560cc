package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/cache"
	"autostore_back_end/internal/models"
	"autostore_back_end/internal/repository"
	search "autostore_back_end/internal/service"
	storage "autostore_back_end/internal/services"
	"autostore_back_end/internal/utils"
)

var Vehicles *repository.VehicleRepository

type vehicleRequest struct {
	Brand       string  `json:"brand" binding:"required"`
	Model       string  `json:"model" binding:"required"`
	Year        int     `json:"year" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	VIN         string  `json:"vin" binding:"required"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
}

// GetVehicles liste les véhicules (paginé, cache Redis 1 min).
func GetVehicles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx := c.Request.Context()
	if entry, ok := cache.GetVehicleList(ctx, page, limit); ok {
		c.JSON(http.StatusOK, entry)
		return
	}

	vehicles, total, err := Vehicles.List(ctx, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	entry := &cache.VehicleListPage{Data: vehicles, Total: total, Page: page, Limit: limit}
	cache.SetVehicleList(ctx, entry)
	c.JSON(http.StatusOK, entry)
}

// GetVehicle renvoie un véhicule par id.
func GetVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de véhicule invalide"})
		return
	}

	vehicle, err := Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// SearchVehicles interroge Elasticsearch.
func SearchVehicles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q manquant"})
		return
	}

	results, err := search.SearchVehicles(query)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// CreateVehicle ajoute un véhicule au catalogue (admin).
func CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de véhicule invalides"})
		return
	}

	vehicle := &models.Vehicle{
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Price:       req.Price,
		VIN:         req.VIN,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
	}
	if err := Vehicles.Create(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateVehicles(c.Request.Context())
	go search.IndexVehicle(*vehicle)
	utils.LogAction(c, utils.ActionVehicleCreate, utils.ResourceVehicle,
		strconv.Itoa(vehicle.ID), nil, vehicle)

	c.JSON(http.StatusCreated, vehicle)
}

// UpdateVehicle modifie un véhicule (admin).
func UpdateVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de véhicule invalide"})
		return
	}

	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de véhicule invalides"})
		return
	}

	current, err := Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	vehicle := &models.Vehicle{
		ID:          id,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Price:       req.Price,
		VIN:         req.VIN,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsAvailable: current.IsAvailable,
	}
	if err := Vehicles.Update(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateVehicles(c.Request.Context())
	go search.IndexVehicle(*vehicle)
	utils.LogAction(c, utils.ActionVehicleUpdate, utils.ResourceVehicle,
		strconv.Itoa(id), current, vehicle)

	c.JSON(http.StatusOK, vehicle)
}

// DeleteVehicle retire un véhicule du catalogue (admin).
func DeleteVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de véhicule invalide"})
		return
	}

	if err := Vehicles.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateVehicles(c.Request.Context())
	go search.RemoveVehicle(id)
	utils.LogAction(c, utils.ActionVehicleDelete, utils.ResourceVehicle,
		strconv.Itoa(id), nil, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Véhicule supprimé"})
}

// UploadVehicleImage attache une image au véhicule via MinIO (admin).
func UploadVehicleImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de véhicule invalide"})
		return
	}

	vehicle, err := Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image manquant"})
		return
	}

	url, err := storage.UploadVehicleImage(c.Request.Context(), id, file)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Upload d'image indisponible"})
		return
	}

	vehicle.ImageURL = url
	if err := Vehicles.Update(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateVehicles(c.Request.Context())
	go search.IndexVehicle(*vehicle)
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}
