package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeService creates payment links for subscriptions and verifies them
// after the storefront redirect. If STRIPE_SECRET_KEY is not set the service
// is disabled (nil) and the payment endpoints answer 503.
type StripeService struct {
	repo       *Repository
	secretKey  string
	successURL string
	cancelURL  string
	sc         *client.API
	invalidKey bool // once detected, short-circuit further remote calls
}

var ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewStripeFromEnv returns a configured service or nil when missing env vars.
func NewStripeFromEnv(repo *Repository) *StripeService {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	success := os.Getenv("STRIPE_SUCCESS_URL")
	if success == "" {
		success = "https://pastafresca.com.ar/dashboard?pago=ok"
	}
	cancel := os.Getenv("STRIPE_CANCEL_URL")
	if cancel == "" {
		cancel = "https://pastafresca.com.ar/dashboard?pago=cancelado"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &StripeService{
		repo:       repo,
		secretKey:  key,
		successURL: success,
		cancelURL:  cancel,
		sc:         sc,
	}
}

func (s *StripeService) isInvalidKey(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) && (se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key")) {
		log.Printf("[STRIPE] invalid api key (%s): %v", maskKey(s.secretKey), se)
		s.invalidKey = true
		return true
	}
	return false
}

// ensurePlanBilling creates the Stripe product/price for a plan on first use
// and keeps the price in sync when the plan price changed.
func (s *StripeService) ensurePlanBilling(ctx context.Context, sub *Subscription) error {
	p := sub.Plan
	if p == nil || p.Price == 0 {
		return nil
	}
	if p.StripeProductID == "" {
		prod, err := s.sc.Products.New(&stripe.ProductParams{Name: stripe.String("Plan " + p.Name)})
		if err != nil {
			return err
		}
		p.StripeProductID = prod.ID
	}
	desired := int64(p.Price * 100)
	if p.StripePriceID != "" {
		if pr, err := s.sc.Prices.Get(p.StripePriceID, nil); err != nil || pr.UnitAmount != desired {
			// keep the old price for historic invoices, create a fresh one
			p.StripePriceID = ""
		}
	}
	if p.StripePriceID == "" {
		price, err := s.sc.Prices.New(&stripe.PriceParams{
			Product:    stripe.String(p.StripeProductID),
			Currency:   stripe.String("ars"),
			UnitAmount: stripe.Int64(desired),
			Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("month")},
		})
		if err != nil {
			return err
		}
		p.StripePriceID = price.ID
	}
	return s.repo.plans.UpdatePlan(p.ID, p)
}

// CreatePaymentLink returns the checkout URL plus a reference the frontend
// carries through the redirect. Free plans skip the provider and activate on
// the spot.
func (s *StripeService) CreatePaymentLink(ctx context.Context, sub *Subscription) (string, string, error) {
	if s == nil {
		return "", "", errors.New("pagos no configurados")
	}
	if s.invalidKey {
		return "", "", ErrStripeInvalidAPIKey
	}
	if sub.Plan == nil {
		return "", "", fmt.Errorf("plan inválido")
	}
	if sub.Plan.Price == 0 {
		if err := s.repo.Activate(sub.ID); err != nil {
			return "", "", err
		}
		return s.successURL, "", nil
	}
	if err := s.ensurePlanBilling(ctx, sub); err != nil {
		if s.isInvalidKey(err) {
			return "", "", ErrStripeInvalidAPIKey
		}
		return "", "", err
	}
	externalRef := uuid.NewString()
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(sub.Plan.StripePriceID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{
			"subscription_id":    strconv.Itoa(sub.ID),
			"user_id":            strconv.Itoa(sub.UserID),
			"external_reference": externalRef,
		},
	}
	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		if s.isInvalidKey(err) {
			return "", "", ErrStripeInvalidAPIKey
		}
		log.Printf("[STRIPE] checkout session error: %v", err)
		return "", "", err
	}
	if err := s.repo.SetPaymentReference(sub.ID, sess.ID); err != nil {
		return "", "", err
	}
	return sess.URL, sess.ID, nil
}

// VerifyPayment re-checks the stored checkout session and activates the
// subscription when it completed. Idempotent: verifying twice is harmless.
func (s *StripeService) VerifyPayment(sub *Subscription) (bool, error) {
	if s == nil {
		return false, errors.New("pagos no configurados")
	}
	if sub.Status == StatusActive {
		return true, nil
	}
	if sub.PaymentReference == "" {
		return false, nil
	}
	sess, err := s.sc.CheckoutSessions.Get(sub.PaymentReference, nil)
	if err != nil {
		if s.isInvalidKey(err) {
			return false, ErrStripeInvalidAPIKey
		}
		return false, err
	}
	if sess.Status != stripe.CheckoutSessionStatusComplete {
		return false, nil
	}
	if err := s.repo.Activate(sub.ID); err != nil {
		return false, err
	}
	return true, nil
}
