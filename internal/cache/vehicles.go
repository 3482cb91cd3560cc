package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"autostore_back_end/internal/database"
	"autostore_back_end/internal/models"
)

const (
	VehicleListCacheTTL = 1 * time.Minute

	vehicleListVersionKey = "vehicle-list-version"
)

// VehicleListPage est l'entrée mise en cache pour une page du catalogue.
type VehicleListPage struct {
	Data  []models.Vehicle `json:"data"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func vehicleListKey(ctx context.Context, page, limit int) string {
	v, err := database.Redis.Get(ctx, vehicleListVersionKey).Int64()
	if err == redis.Nil {
		database.Redis.Set(ctx, vehicleListVersionKey, 1, 0)
		v = 1
	} else if err != nil {
		v = 0
	}
	return fmt.Sprintf("vehicle-list:%d:%d:%d", v, page, limit)
}

func GetVehicleList(ctx context.Context, page, limit int) (*VehicleListPage, bool) {
	data, err := database.Redis.Get(ctx, vehicleListKey(ctx, page, limit)).Result()
	if err != nil {
		return nil, false
	}
	var entry VehicleListPage
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func SetVehicleList(ctx context.Context, entry *VehicleListPage) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, vehicleListKey(ctx, entry.Page, entry.Limit), data, VehicleListCacheTTL)
}

// InvalidateVehicles bump la version des listes après toute mutation du
// catalogue (création, mise à jour, suppression, réservation).
func InvalidateVehicles(ctx context.Context) {
	database.Redis.Set(ctx, vehicleListVersionKey, time.Now().UnixMilli(), 0)
}
