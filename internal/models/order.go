package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Table des transitions autorisées. CANCELLED et SHIPPED sont terminaux :
// toute transition absente de cette table est refusée, y compris pour un admin.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order est l'entité centrale. Le total est figé à la création (somme des prix
// des véhicules à ce moment-là) et n'est jamais recalculé.
type Order struct {
	ID                   int         `json:"id"`
	UserID               int         `json:"userId"`
	User                 *User       `json:"user,omitempty"`
	Vehicles             []Vehicle   `json:"vehicles"`
	Total                float64     `json:"total"`
	ShippingAddress      string      `json:"shippingAddress"`
	PaymentMethod        string      `json:"paymentMethod"`
	Notes                string      `json:"notes,omitempty"`
	CancellationReason   string      `json:"cancellationReason,omitempty"`
	PaymentTransactionID string      `json:"paymentTransactionId,omitempty"`
	PaymentApprovalLink  string      `json:"paymentApprovalLink,omitempty"`
	Status               OrderStatus `json:"status"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

type OrderLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// OrderView est la représentation renvoyée au client : le lien d'approbation
// brut n'y figure jamais, il n'apparaît que sous forme de "links" tant que la
// commande est PENDING.
type OrderView struct {
	ID                 int         `json:"id"`
	UserID             int         `json:"userId"`
	User               *User       `json:"user,omitempty"`
	Vehicles           []Vehicle   `json:"vehicles"`
	Total              float64     `json:"total"`
	ShippingAddress    string      `json:"shippingAddress"`
	PaymentMethod      string      `json:"paymentMethod"`
	Notes              string      `json:"notes,omitempty"`
	CancellationReason string      `json:"cancellationReason,omitempty"`
	Status             OrderStatus `json:"status"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	Links              []OrderLink `json:"links,omitempty"`
}

func (o *Order) View() OrderView {
	v := OrderView{
		ID:                 o.ID,
		UserID:             o.UserID,
		User:               o.User,
		Vehicles:           o.Vehicles,
		Total:              o.Total,
		ShippingAddress:    o.ShippingAddress,
		PaymentMethod:      o.PaymentMethod,
		Notes:              o.Notes,
		CancellationReason: o.CancellationReason,
		Status:             o.Status,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.Status == OrderPending && o.PaymentApprovalLink != "" {
		v.Links = []OrderLink{{Href: o.PaymentApprovalLink, Rel: "approve", Method: "GET"}}
	}
	return v
}
