package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/orders"
	"autostore_back_end/internal/payments"
)

// Fakes mémoire : le service réel est branché dessus, seuls la base, Redis et
// le processeur de paiement sont simulés.

type memStore struct {
	nextID int
	orders map[int]*models.Order
}

func (s *memStore) Transact(ctx context.Context, fn func(tx orders.Tx) error) error {
	return fn(nil)
}

func (s *memStore) Create(ctx context.Context, tx orders.Tx, o *models.Order) error {
	s.nextID++
	o.ID = s.nextID
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memStore) Update(ctx context.Context, tx orders.Tx, o *models.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memStore) Get(ctx context.Context, id int) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.NewNotFound("Commande %d introuvable", id)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetByTransactionID(ctx context.Context, token string) (*models.Order, error) {
	for _, o := range s.orders {
		if o.PaymentTransactionID == token {
			cp := *o
			return &cp, nil
		}
	}
	return nil, orders.NewNotFound("Aucune commande pour la transaction %s", token)
}

func (s *memStore) List(ctx context.Context, page, limit int) ([]models.Order, error) {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

type memInventory struct {
	vehicles map[int]*models.Vehicle
}

func (i *memInventory) Get(ctx context.Context, id int) (*models.Vehicle, error) {
	v, ok := i.vehicles[id]
	if !ok {
		return nil, orders.NewNotFound("Véhicule %d introuvable", id)
	}
	cp := *v
	return &cp, nil
}

func (i *memInventory) Reserve(ctx context.Context, tx orders.Tx, id int) error {
	i.vehicles[id].IsAvailable = false
	return nil
}

func (i *memInventory) Release(ctx context.Context, tx orders.Tx, id int) error {
	i.vehicles[id].IsAvailable = true
	return nil
}

type memCache struct {
	orders map[int]*models.Order
	locks  map[string]bool
}

func (c *memCache) GetOrder(ctx context.Context, id int) (*models.Order, bool) {
	o, ok := c.orders[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}
func (c *memCache) SetOrder(ctx context.Context, o *models.Order) {
	cp := *o
	c.orders[o.ID] = &cp
}
func (c *memCache) DelOrder(ctx context.Context, id int) { delete(c.orders, id) }
func (c *memCache) GetList(ctx context.Context, page, limit int) ([]models.Order, bool) {
	return nil, false
}
func (c *memCache) SetList(ctx context.Context, page, limit int, list []models.Order) {}
func (c *memCache) BumpListVersion(ctx context.Context)                               {}
func (c *memCache) Lock(ctx context.Context, key string, ttl time.Duration) bool {
	if c.locks[key] {
		return false
	}
	c.locks[key] = true
	return true
}
func (c *memCache) Unlock(ctx context.Context, key string) { delete(c.locks, key) }

type memGateway struct{}

func (memGateway) Name() string { return "paypal" }
func (memGateway) CreateIntent(ctx context.Context, total float64) (*payments.Intent, error) {
	return &payments.Intent{
		ID:    "TXN-HTTP-1",
		Links: []payments.Link{{Href: "https://pay.example/approve", Rel: "approve", Method: "GET"}},
	}, nil
}
func (memGateway) Capture(ctx context.Context, transactionID string) (bool, error) {
	return true, nil
}

// asUser simule le middleware JWT avec une identité fixe.
func asUser(id int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Set("user_id_str", strconv.Itoa(id))
		c.Set("email", fmt.Sprintf("user%d@test.local", id))
		c.Set("role", role)
	}
}

func newTestRouter(t *testing.T, userID int, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{orders: map[int]*models.Order{}}
	inv := &memInventory{vehicles: map[int]*models.Vehicle{
		1: {ID: 1, Brand: "Renault", Model: "Clio", Year: 2021, Price: 100, VIN: "VIN-1", IsAvailable: true},
		2: {ID: 2, Brand: "Peugeot", Model: "208", Year: 2022, Price: 250, VIN: "VIN-2", IsAvailable: true},
	}}
	cache := &memCache{orders: map[int]*models.Order{}, locks: map[string]bool{}}
	Orders = orders.NewService(store, inv, cache, []payments.Gateway{memGateway{}}, nil)

	r := gin.New()
	api := r.Group("/api", asUser(userID, role))
	api.POST("/orders", CreateOrder)
	api.GET("/orders", GetOrders)
	api.GET("/orders/:id", GetOrder)
	api.POST("/orders/:id/cancel", CancelOrder)
	api.POST("/orders/:id/capture", CaptureOrder)
	api.GET("/paypal/success", PayPalSuccess)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	r := newTestRouter(t, 7, models.RoleClient)

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"vehicleIds":      []int{1, 2},
		"shippingAddress": "Calle 1 #2-3",
		"paymentMethod":   "paypal",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("statut %d: %s", w.Code, w.Body.String())
	}

	var view models.OrderView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Status != models.OrderPending || view.Total != 350 {
		t.Errorf("vue = %+v", view)
	}
	if len(view.Links) != 1 || view.Links[0].Rel != "approve" {
		t.Errorf("liens = %+v", view.Links)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("paymentApprovalLink")) {
		t.Error("lien brut exposé dans la réponse")
	}
}

func TestCreateOrderEndpointRejectsBadPayload(t *testing.T) {
	r := newTestRouter(t, 7, models.RoleClient)

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{"vehicleIds": []int{1}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("statut %d sans adresse de livraison", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"vehicleIds":      []int{1, 1},
		"shippingAddress": "Calle 1",
		"paymentMethod":   "paypal",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("statut %d pour des véhicules dupliqués", w.Code)
	}
}

func TestGetOrderEndpointForbidden(t *testing.T) {
	r := newTestRouter(t, 7, models.RoleClient)
	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"vehicleIds":      []int{1},
		"shippingAddress": "Calle 1",
		"paymentMethod":   "paypal",
	})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}

	// Même service, autre identité.
	r2 := gin.New()
	r2.GET("/api/orders/:id", asUser(99, models.RoleClient), GetOrder)
	w2 := doJSON(t, r2, http.MethodGet, "/api/orders/1", nil)
	if w2.Code != http.StatusForbidden {
		t.Errorf("statut %d pour un autre client", w2.Code)
	}

	r3 := gin.New()
	r3.GET("/api/orders/:id", asUser(99, models.RoleAdmin), GetOrder)
	w3 := doJSON(t, r3, http.MethodGet, "/api/orders/1", nil)
	if w3.Code != http.StatusOK {
		t.Errorf("statut %d pour un admin", w3.Code)
	}
}

func TestPayPalSuccessEndpoint(t *testing.T) {
	r := newTestRouter(t, 7, models.RoleClient)
	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"vehicleIds":      []int{1},
		"shippingAddress": "Calle 1",
		"paymentMethod":   "paypal",
	})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/paypal/success?token=TXN-HTTP-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("statut %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string           `json:"status"`
		Order  models.OrderView `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "COMPLETED" || resp.Order.Status != models.OrderPaid {
		t.Errorf("réponse = %+v", resp)
	}

	// Callback rejoué : la transition PAID -> PAID est refusée.
	w = doJSON(t, r, http.MethodGet, "/api/paypal/success?token=TXN-HTTP-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("statut %d pour un callback rejoué", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/paypal/success", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("statut %d sans token", w.Code)
	}
}

func TestCancelOrderEndpoint(t *testing.T) {
	r := newTestRouter(t, 7, models.RoleClient)
	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"vehicleIds":      []int{1},
		"shippingAddress": "Calle 1",
		"paymentMethod":   "paypal",
	})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/orders/1/cancel", gin.H{"reason": "changement d'avis"})
	if w.Code != http.StatusOK {
		t.Fatalf("statut %d: %s", w.Code, w.Body.String())
	}
	var view models.OrderView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Status != models.OrderCancelled || view.CancellationReason != "changement d'avis" {
		t.Errorf("vue = %+v", view)
	}

	w = doJSON(t, r, http.MethodPost, "/api/orders/1/cancel", gin.H{"reason": "encore"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("statut %d pour une double annulation", w.Code)
	}
}
