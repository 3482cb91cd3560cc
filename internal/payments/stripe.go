package payments

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// Stripe implémente Gateway avec une Checkout Session dont l'URL sert de lien
// d'approbation, et un PaymentIntent en capture manuelle pour que la capture
// reste explicite comme sur PayPal.
type Stripe struct {
	baseURL string
	client  *http.Client
}

func NewStripe() *Stripe {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &Stripe{
		baseURL: base,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateIntent(ctx context.Context, total float64) (*Intent, error) {
	rate := copToUSDRate(ctx, s.client)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.baseURL + "/api/stripe/success?token={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.baseURL + "/api/stripe/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(int64(total * rate * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Commande AutoStore"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			CaptureMethod: stripe.String("manual"),
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &Intent{
		ID:    sess.ID,
		Links: []Link{{Href: sess.URL, Rel: "approve", Method: "GET"}},
	}, nil
}

func (s *Stripe) Capture(ctx context.Context, transactionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := session.Get(transactionID, params)
	if err != nil {
		return false, err
	}
	pi := sess.PaymentIntent
	if pi == nil {
		return false, nil
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return true, nil
	case stripe.PaymentIntentStatusRequiresCapture:
		captureParams := &stripe.PaymentIntentCaptureParams{}
		captureParams.Context = ctx
		captured, err := paymentintent.Capture(pi.ID, captureParams)
		if err != nil {
			return false, err
		}
		return captured.Status == stripe.PaymentIntentStatusSucceeded, nil
	default:
		return false, nil
	}
}
