package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"autostore_back_end/internal/models"
)

const (
	OrderCacheTTL     = 5 * time.Minute
	OrderListCacheTTL = 1 * time.Minute

	// Clé sans expiration : le numéro de version invalide toutes les pages
	// listées d'un coup, sans énumérer les clés.
	orderListVersionKey = "order-list-version"
)

// OrderCache est la couche Redis des commandes : entrées unitaires avec TTL,
// listes paginées versionnées, et verrou distribué pour la capture.
type OrderCache struct {
	rdb *redis.Client
}

func NewOrderCache(rdb *redis.Client) *OrderCache {
	return &OrderCache{rdb: rdb}
}

func orderKey(id int) string {
	return fmt.Sprintf("order:%d", id)
}

func (c *OrderCache) listKey(ctx context.Context, page, limit int) string {
	return fmt.Sprintf("order-list:%d:%d:%d", c.listVersion(ctx), page, limit)
}

// listVersion retourne la version courante des listes, initialisée à 1 lors
// de la première lecture.
func (c *OrderCache) listVersion(ctx context.Context) int64 {
	v, err := c.rdb.Get(ctx, orderListVersionKey).Int64()
	if err == redis.Nil {
		c.rdb.Set(ctx, orderListVersionKey, 1, 0)
		return 1
	}
	if err != nil {
		// Redis indisponible : version 0, le miss rechargera depuis Postgres.
		return 0
	}
	return v
}

// BumpListVersion passe la version au timestamp courant : toutes les pages en
// cache deviennent inaccessibles et expireront par TTL.
func (c *OrderCache) BumpListVersion(ctx context.Context) {
	if err := c.rdb.Set(ctx, orderListVersionKey, time.Now().UnixMilli(), 0).Err(); err != nil {
		log.Println("⚠️ Erreur bump version liste commandes:", err)
	}
}

func (c *OrderCache) GetOrder(ctx context.Context, id int) (*models.Order, bool) {
	data, err := c.rdb.Get(ctx, orderKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var o models.Order
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (c *OrderCache) SetOrder(ctx context.Context, o *models.Order) {
	data, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, orderKey(o.ID), data, OrderCacheTTL).Err(); err != nil {
		log.Println("⚠️ Erreur écriture cache commande:", err)
	}
}

func (c *OrderCache) DelOrder(ctx context.Context, id int) {
	if err := c.rdb.Del(ctx, orderKey(id)).Err(); err != nil {
		log.Println("⚠️ Erreur éviction cache commande:", err)
	}
}

func (c *OrderCache) GetList(ctx context.Context, page, limit int) ([]models.Order, bool) {
	data, err := c.rdb.Get(ctx, c.listKey(ctx, page, limit)).Result()
	if err != nil {
		return nil, false
	}
	var list []models.Order
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, false
	}
	return list, true
}

func (c *OrderCache) SetList(ctx context.Context, page, limit int, list []models.Order) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.listKey(ctx, page, limit), data, OrderListCacheTTL).Err(); err != nil {
		log.Println("⚠️ Erreur écriture cache liste commandes:", err)
	}
}

// Lock pose un verrou distribué (SET NX PX). Une erreur Redis vaut verrou non
// acquis : un callback dupliqué dégrade en capture refusée, pas en 500.
func (c *OrderCache) Lock(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := c.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		log.Println("⚠️ Erreur acquisition verrou:", err)
		return false
	}
	return ok
}

func (c *OrderCache) Unlock(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.Println("⚠️ Erreur libération verrou:", err)
	}
}
