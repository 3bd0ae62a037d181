package billing

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
)

// processorTimeout bounds every request to Stripe. No lock is ever held
// across these calls.
const processorTimeout = 10 * time.Second

// Processor is the payment processor client. Stripe is authoritative for
// subscription status and money movement; this interface exists so the
// webhook processor, linker and changer stay testable with fakes.
type Processor interface {
	// CheckoutSession retrieves a session with its line items expanded.
	CheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeProcessor struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProcessor(secretKey, webhookSecret string) Processor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProcessor{api: api, webhookSecret: webhookSecret}
}

func (p *stripeProcessor) CheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	return p.api.CheckoutSessions.Get(sessionID, params)
}

func (p *stripeProcessor) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return p.api.CheckoutSessions.New(params)
}

func (p *stripeProcessor) Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return p.api.Subscriptions.Get(subscriptionID, params)
}

func (p *stripeProcessor) UpdateSubscription(ctx context.Context, subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	params.Context = ctx
	return p.api.Subscriptions.Update(subscriptionID, params)
}

func (p *stripeProcessor) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
}

// activePriceID returns the price id of the subscription's first item, the
// one a single-plan subscription always has.
func activePriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	item := sub.Items.Data[0]
	if item.Price == nil {
		return ""
	}
	return item.Price.ID
}

func statusFromStripe(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	case stripe.SubscriptionStatusPastDue:
		return models.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled,
		stripe.SubscriptionStatusIncompleteExpired,
		stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionCancelled
	default:
		return models.SubscriptionActive
	}
}
