package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestOrderStatusTransitions(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderPaid, OrderShipped, OrderCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderPaid}:      true,
		{OrderPending, OrderCancelled}: true,
		{OrderPaid, OrderShipped}:      true,
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != allowed[[2]OrderStatus{from, to}] {
				t.Errorf("%s vers %s = %v", from, to, got)
			}
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderPending, OrderPaid, OrderShipped, OrderCancelled} {
		if !s.Valid() {
			t.Errorf("%s considéré invalide", s)
		}
	}
	if OrderStatus("DELIVERED").Valid() {
		t.Error("statut inconnu accepté")
	}
	if OrderStatus("").Valid() {
		t.Error("statut vide accepté")
	}
}

func TestOrderViewApprovalLink(t *testing.T) {
	o := &Order{
		ID:                  1,
		Status:              OrderPending,
		PaymentApprovalLink: "https://pay.example/approve/XYZ",
	}

	view := o.View()
	if len(view.Links) != 1 {
		t.Fatalf("liens = %+v", view.Links)
	}
	link := view.Links[0]
	if link.Href != o.PaymentApprovalLink || link.Rel != "approve" || link.Method != "GET" {
		t.Errorf("lien = %+v", link)
	}

	// Après paiement le lien disparaît de la vue.
	o.Status = OrderPaid
	if len(o.View().Links) != 0 {
		t.Error("lien projeté hors PENDING")
	}

	// Pas de lien stocké, pas de lien projeté.
	o.Status = OrderPending
	o.PaymentApprovalLink = ""
	if len(o.View().Links) != 0 {
		t.Error("lien projeté sans lien stocké")
	}
}

func TestOrderViewHidesRawPaymentFields(t *testing.T) {
	o := &Order{
		ID:                   1,
		Status:               OrderPending,
		PaymentTransactionID: "TXN-SECRET",
		PaymentApprovalLink:  "https://pay.example/approve/XYZ",
	}

	data, err := json.Marshal(o.View())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "TXN-SECRET") {
		t.Error("identifiant de transaction exposé dans la vue")
	}
	if strings.Contains(string(data), "paymentApprovalLink") {
		t.Error("champ brut du lien d'approbation exposé dans la vue")
	}
}

func TestOrderSerializationKeepsOwnerAndLink(t *testing.T) {
	// L'entité brute (ce que stocke le cache) doit conserver le propriétaire
	// et le lien d'approbation à travers un aller-retour JSON.
	o := Order{ID: 5, UserID: 7, PaymentApprovalLink: "https://pay.example/a", Status: OrderPending}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	var back Order
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.UserID != 7 || back.PaymentApprovalLink != o.PaymentApprovalLink {
		t.Errorf("aller-retour: %+v", back)
	}
}
