package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

// EventProcessor applies Stripe webhook events to the subscription record
// store. Delivery is at-least-once, possibly out of order, so every handler
// is idempotent and matches rows by Stripe-assigned identifiers, never by
// event id. A nil return acknowledges the event; only unexpected failures
// propagate so Stripe retries them.
type EventProcessor struct {
	store     Store
	processor Processor
	catalog   *Catalog
}

func NewEventProcessor(store Store, processor Processor, catalog *Catalog) *EventProcessor {
	return &EventProcessor{store: store, processor: processor, catalog: catalog}
}

func (p *EventProcessor) Handle(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			utils.LogError(err, "dropping malformed checkout.session.completed payload")
			return nil
		}
		return p.handleCheckoutCompleted(ctx, &session)

	case "invoice.payment_succeeded":
		return p.handleInvoicePaid(event.Data.Raw)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.LogError(err, "dropping malformed customer.subscription.updated payload")
			return nil
		}
		return p.handleSubscriptionUpdated(ctx, sub.ID)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.LogError(err, "dropping malformed customer.subscription.deleted payload")
			return nil
		}
		// Cancelled is terminal and applies whether or not the record was
		// ever linked to an account.
		if err := p.store.MarkCancelled(sub.ID); err != nil {
			return fmt.Errorf("cancelling subscription %s: %w", sub.ID, err)
		}
		return nil

	default:
		return nil
	}
}

func (p *EventProcessor) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	stripeSubID := ""
	if session.Subscription != nil {
		stripeSubID = session.Subscription.ID
	}

	// Replays must not create a second record.
	if stripeSubID != "" {
		existing, err := p.store.SubscriptionByStripeID(stripeSubID)
		if err != nil {
			return fmt.Errorf("checking for existing subscription %s: %w", stripeSubID, err)
		}
		if existing != nil {
			utils.LogInfo("subscription " + stripeSubID + " already recorded, ignoring replayed checkout event")
			return nil
		}
	}
	existing, err := p.store.SubscriptionBySessionID(session.ID)
	if err != nil {
		return fmt.Errorf("checking for existing session %s: %w", session.ID, err)
	}
	if existing != nil {
		utils.LogInfo("session " + session.ID + " already recorded, ignoring replayed checkout event")
		return nil
	}

	plan, err := p.resolveSessionPlan(ctx, session)
	if err != nil {
		// An unresolvable plan must not make Stripe retry forever; the
		// session stays inspectable on the Stripe side.
		utils.LogError(err, "could not resolve plan for checkout session "+session.ID+", dropping event")
		return nil
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	sub := &models.Subscription{
		PlanID:               plan.ID,
		Status:               models.SubscriptionActive,
		StripeSubscriptionID: stripeSubID,
		StripeCustomerID:     customerID,
		StripeSessionID:      session.ID,
	}
	if code := session.Metadata[metaPromoCode]; IsValidPromoCode(code) {
		sub.PromoCode = code
		end := FreePeriodEndDate
		sub.FreePeriodEnd = &end
	}

	if err := p.store.CreateSubscription(sub); err != nil {
		return fmt.Errorf("creating subscription record for session %s: %w", session.ID, err)
	}
	utils.LogSuccess("created unlinked subscription " + sub.ID + " for session " + session.ID)
	return nil
}

// resolveSessionPlan prefers the plan name in the session metadata and falls
// back to matching the line-item price against the catalog. Event payloads
// do not carry line items, so the fallback re-fetches the session with them
// expanded.
func (p *EventProcessor) resolveSessionPlan(ctx context.Context, session *stripe.CheckoutSession) (*models.SubscriptionPlan, error) {
	if name := session.Metadata[metaPlanName]; name != "" {
		return p.catalog.ByName(name)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()
	fetched, err := p.processor.CheckoutSession(fetchCtx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("refetching session %s: %w", session.ID, err)
	}
	if fetched.LineItems == nil || len(fetched.LineItems.Data) == 0 || fetched.LineItems.Data[0].Price == nil {
		return nil, fmt.Errorf("session %s has no line items to resolve a plan from", session.ID)
	}
	return p.catalog.ByPriceID(fetched.LineItems.Data[0].Price.ID)
}

func (p *EventProcessor) handleInvoicePaid(raw json.RawMessage) error {
	var invoice map[string]interface{}
	if err := json.Unmarshal(raw, &invoice); err != nil {
		utils.LogError(err, "dropping malformed invoice.payment_succeeded payload")
		return nil
	}

	stripeSubID := invoiceSubscriptionID(invoice)
	if stripeSubID == "" {
		utils.LogInfo("invoice without subscription id, ignoring")
		return nil
	}

	sub, err := p.store.SubscriptionByStripeID(stripeSubID)
	if err != nil {
		return fmt.Errorf("looking up subscription %s: %w", stripeSubID, err)
	}
	if sub == nil || sub.UserID == nil {
		// The linker has not run yet; the payment is recorded once the
		// invoice is replayed or a later one arrives.
		utils.LogInfo("no linked record for subscription " + stripeSubID + ", skipping payment")
		return nil
	}

	amount := 0
	if amountPaid, ok := invoice["amount_paid"].(float64); ok {
		amount = int(amountPaid)
	}
	paymentIntentID, _ := invoice["payment_intent"].(string)

	payment := &models.SubscriptionPayment{
		SubscriptionID:        sub.ID,
		Amount:                amount,
		PaidAt:                time.Now(),
		StripePaymentIntentID: paymentIntentID,
	}
	if err := p.store.RecordPayment(payment); err != nil {
		return fmt.Errorf("recording payment for subscription %s: %w", stripeSubID, err)
	}
	return nil
}

// invoiceSubscriptionID tolerates both invoice payload shapes: the nested
// parent.subscription_details form and the flat subscription field.
func invoiceSubscriptionID(invoice map[string]interface{}) string {
	if parent, ok := invoice["parent"].(map[string]interface{}); ok {
		if details, ok := parent["subscription_details"].(map[string]interface{}); ok {
			if sub, ok := details["subscription"].(string); ok && sub != "" {
				return sub
			}
		}
	}
	if sub, ok := invoice["subscription"].(string); ok {
		return sub
	}
	return ""
}

func (p *EventProcessor) handleSubscriptionUpdated(ctx context.Context, stripeSubID string) error {
	sub, err := p.store.SubscriptionByStripeID(stripeSubID)
	if err != nil {
		return fmt.Errorf("looking up subscription %s: %w", stripeSubID, err)
	}
	if sub == nil {
		// The update raced ahead of the checkout event; the completed
		// checkout carries the current plan anyway.
		utils.LogInfo("no local record for updated subscription " + stripeSubID + ", ignoring")
		return nil
	}

	// The event payload is not trusted to carry complete price data; the
	// subscription is always re-fetched before anything is written.
	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()
	fresh, err := p.processor.Subscription(fetchCtx, stripeSubID)
	if err != nil {
		return fmt.Errorf("refetching subscription %s: %w", stripeSubID, err)
	}

	priceID := activePriceID(fresh)
	if priceID == "" {
		utils.LogInfo("subscription " + stripeSubID + " has no active price, ignoring update")
		return nil
	}
	plan, err := p.catalog.ByPriceID(priceID)
	if err != nil {
		utils.LogError(err, "unknown price "+priceID+" on subscription "+stripeSubID+", dropping update")
		return nil
	}

	status := statusFromStripe(fresh.Status)
	if plan.ID == sub.PlanID && status == sub.Status {
		return nil
	}
	if err := p.store.SyncPlanStatus(stripeSubID, plan.ID, status); err != nil {
		return fmt.Errorf("syncing subscription %s: %w", stripeSubID, err)
	}
	utils.LogSuccess("synced subscription " + stripeSubID + " to plan " + plan.Name + " status " + string(status))
	return nil
}
