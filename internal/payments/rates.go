package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
)

// Surchargé dans les tests.
var exchangeRateBaseURL = "https://api.exchangerate.host/live"

// copToUSDRate récupère le taux COP vers USD. Toute erreur (réseau, clé
// absente, réponse inattendue) retombe sur 1 plutôt que de bloquer la vente.
func copToUSDRate(ctx context.Context, client *http.Client) float64 {
	params := url.Values{}
	params.Set("access_key", os.Getenv("EXCHANGE_RATE_API_KEY"))
	params.Set("source", "COP")
	params.Set("currencies", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exchangeRateBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 1
	}

	res, err := client.Do(req)
	if err != nil {
		return 1
	}
	defer res.Body.Close()

	var body struct {
		Quotes map[string]float64 `json:"quotes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 1
	}
	if rate, ok := body.Quotes["COPUSD"]; ok && rate > 0 {
		return rate
	}
	return 1
}
