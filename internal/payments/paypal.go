package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
	paypalLiveURL    = "https://api-m.paypal.com"
)

// PayPal implémente Gateway via l'API REST Orders v2 (flux d'approbation par
// redirection : le lien rel "approve" renvoie l'acheteur chez PayPal).
type PayPal struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
}

func NewPayPal(clientID, secret, baseURL string) *PayPal {
	return &PayPal{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// NewPayPalFromEnv lit PAYPAL_CLIENT_ID / PAYPAL_CLIENT_SECRET / PAYPAL_MODE.
func NewPayPalFromEnv() *PayPal {
	base := paypalSandboxURL
	if os.Getenv("PAYPAL_MODE") == "live" {
		base = paypalLiveURL
	}
	return NewPayPal(os.Getenv("PAYPAL_CLIENT_ID"), os.Getenv("PAYPAL_CLIENT_SECRET"), base)
}

func (p *PayPal) Name() string { return "paypal" }

// token obtient un access token OAuth2 client-credentials.
func (p *PayPal) token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.clientID, p.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentification PayPal: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentification PayPal: statut %d", res.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.AccessToken, nil
}

// CreateIntent ouvre une commande PayPal (intent CAPTURE) pour le montant
// converti en USD, et retourne l'identifiant + les liens de redirection.
func (p *PayPal) CreateIntent(ctx context.Context, total float64) (*Intent, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	rate := copToUSDRate(ctx, p.client)
	usdTotal := fmt.Sprintf("%.2f", total*rate)

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{"amount": map[string]string{"currency_code": "USD", "value": usdTotal}},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/checkout/orders", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	// Idempotence côté PayPal si la requête est rejouée.
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("création commande PayPal: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("création commande PayPal: statut %d", res.StatusCode)
	}

	var body struct {
		ID    string `json:"id"`
		Links []Link `json:"links"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &Intent{ID: body.ID, Links: body.Links}, nil
}

// Capture finalise une commande PayPal précédemment approuvée par l'acheteur.
func (p *PayPal) Capture(ctx context.Context, transactionID string) (bool, error) {
	token, err := p.token(ctx)
	if err != nil {
		return false, err
	}

	captureURL := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", p.baseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, captureURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("capture PayPal: %w", err)
	}
	defer res.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Status == "COMPLETED", nil
}
