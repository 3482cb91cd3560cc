package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func paypalTestServer(t *testing.T, captureStatus string) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("PayPal-Request-Id") == "" {
			t.Error("PayPal-Request-Id manquant")
		}
		var payload struct {
			Intent        string `json:"intent"`
			PurchaseUnits []struct {
				Amount map[string]string `json:"amount"`
			} `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("payload illisible: %v", err)
		}
		if payload.Intent != "CAPTURE" {
			t.Errorf("intent = %q", payload.Intent)
		}
		if len(payload.PurchaseUnits) == 1 {
			amount := payload.PurchaseUnits[0].Amount
			if amount["currency_code"] != "USD" {
				t.Errorf("devise = %q", amount["currency_code"])
			}
			if amount["value"] != "350.50" {
				t.Errorf("montant = %q", amount["value"])
			}
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "PAYPAL-ORDER-1",
			"links": []map[string]string{
				{"href": "https://sandbox.paypal.com/self", "rel": "self", "method": "GET"},
				{"href": "https://sandbox.paypal.com/approve", "rel": "approve", "method": "GET"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/PAYPAL-ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": captureStatus})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &paths
}

func TestPayPalCreateIntent(t *testing.T) {
	srv, _ := paypalTestServer(t, "COMPLETED")

	// Taux de change indisponible : le montant part tel quel (taux 1).
	old := exchangeRateBaseURL
	exchangeRateBaseURL = srv.URL + "/absent"
	defer func() { exchangeRateBaseURL = old }()

	gw := NewPayPal("client-id", "client-secret", srv.URL)
	intent, err := gw.CreateIntent(context.Background(), 350.50)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "PAYPAL-ORDER-1" {
		t.Errorf("id = %q", intent.ID)
	}
	if got := ApprovalLink(intent.Links); got != "https://sandbox.paypal.com/approve" {
		t.Errorf("lien d'approbation = %q", got)
	}
}

func TestPayPalCapture(t *testing.T) {
	srv, _ := paypalTestServer(t, "COMPLETED")
	gw := NewPayPal("client-id", "client-secret", srv.URL)

	completed, err := gw.Capture(context.Background(), "PAYPAL-ORDER-1")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !completed {
		t.Error("capture non complétée")
	}
}

func TestPayPalCaptureNotCompleted(t *testing.T) {
	srv, _ := paypalTestServer(t, "PENDING")
	gw := NewPayPal("client-id", "client-secret", srv.URL)

	completed, err := gw.Capture(context.Background(), "PAYPAL-ORDER-1")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if completed {
		t.Error("statut PENDING traité comme complété")
	}
}

func TestPayPalBadCredentials(t *testing.T) {
	srv, _ := paypalTestServer(t, "COMPLETED")
	gw := NewPayPal("mauvais", "identifiants", srv.URL)

	if _, err := gw.CreateIntent(context.Background(), 100); err == nil {
		t.Error("authentification invalide acceptée")
	}
}

func TestCopToUSDRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("source") != "COP" {
			t.Errorf("source = %q", r.URL.Query().Get("source"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"quotes": map[string]float64{"COPUSD": 0.00025},
		})
	}))
	defer srv.Close()

	old := exchangeRateBaseURL
	exchangeRateBaseURL = srv.URL
	defer func() { exchangeRateBaseURL = old }()

	if rate := copToUSDRate(context.Background(), srv.Client()); rate != 0.00025 {
		t.Errorf("taux = %v", rate)
	}
}

func TestCopToUSDRateFallsBackToOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	old := exchangeRateBaseURL
	exchangeRateBaseURL = srv.URL
	defer func() { exchangeRateBaseURL = old }()

	if rate := copToUSDRate(context.Background(), srv.Client()); rate != 1 {
		t.Errorf("taux = %v, attendu le repli 1", rate)
	}

	// Serveur injoignable.
	exchangeRateBaseURL = "http://127.0.0.1:1"
	if rate := copToUSDRate(context.Background(), srv.Client()); rate != 1 {
		t.Errorf("taux = %v, attendu le repli 1", rate)
	}
}
