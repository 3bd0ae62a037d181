package billing

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

type ChangeRequest struct {
	SubscriptionID string
	NewPlanName    string
	IsAnnual       bool
}

type ChangeResult struct {
	SubscriptionID   string `json:"id"`
	Status           string `json:"status"`
	PlanName         string `json:"planName"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd"`
}

// Changer validates and applies customer-initiated plan changes. Stripe is
// the source of truth: once the Stripe update succeeds the change is final,
// and an internal write failure is only a reconciliation gap the next
// webhook heals. The Stripe call is never retried automatically.
type Changer struct {
	store     Store
	processor Processor
	catalog   *Catalog
	now       func() time.Time
}

func NewChanger(store Store, processor Processor, catalog *Catalog) *Changer {
	return &Changer{store: store, processor: processor, catalog: catalog, now: time.Now}
}

func (c *Changer) ChangePlan(ctx context.Context, req ChangeRequest) (*ChangeResult, error) {
	// Zero-cost plans have no Stripe subscription and cannot use this path.
	if req.SubscriptionID == "" || req.SubscriptionID == "null" {
		return nil, ErrNoActiveSubscription
	}

	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()
	sub, err := c.processor.Subscription(fetchCtx, req.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	// An items-less subscription has no price to resolve; checking here keeps
	// the empty price id away from the catalog, where it would match a
	// zero-cost plan's empty price columns.
	currentPriceID := activePriceID(sub)
	if currentPriceID == "" {
		return nil, fmt.Errorf("%w: subscription %s has no active price", ErrNotFound, req.SubscriptionID)
	}
	currentPlan, err := c.catalog.ByPriceID(currentPriceID)
	if err != nil {
		return nil, fmt.Errorf("%w: current price %q not in catalog", ErrUnknownPlan, currentPriceID)
	}
	newPlan, err := c.catalog.ByName(req.NewPlanName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, req.NewPlanName)
	}

	currentTier, ok := TierRank(currentPlan.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no tier", ErrUnknownPlan, currentPlan.Name)
	}
	newTier, ok := TierRank(newPlan.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no tier", ErrUnknownPlan, newPlan.Name)
	}

	hasPromo := hasPromoMetadata(sub.Metadata)
	inFreeWindow := InFreeWindow(c.now())

	// Upgrade-only rule: inside the promotional window a promo subscription
	// may only move to a strictly higher tier.
	if hasPromo && inFreeWindow && newTier <= currentTier {
		return nil, ErrDowngradeNotAllowed
	}

	newPriceID := newPlan.PriceID(req.IsAnnual)
	if newPriceID == "" {
		return nil, fmt.Errorf("%w: plan %s has no price for the requested interval", ErrPlanNotConfigured, newPlan.Name)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:    stripe.String(sub.Items.Data[0].ID),
			Price: stripe.String(newPriceID),
		}},
		// Invoice the change immediately instead of deferring it.
		ProrationBehavior: stripe.String("always_invoice"),
	}
	params.AddMetadata(metaPlanName, newPlan.Name)
	params.AddMetadata(metaFreePeriodEnd, freePeriodEndMetadata)
	if code := sub.Metadata[metaPromoCode]; hasPromo && code != "" {
		params.AddMetadata(metaPromoCode, code)
	}
	// An upgrade never shortens a promised free period.
	if hasPromo && inFreeWindow && sub.TrialEnd > 0 {
		params.TrialEnd = stripe.Int64(sub.TrialEnd)
	}

	updateCtx, cancelUpdate := context.WithTimeout(ctx, processorTimeout)
	defer cancelUpdate()
	updated, err := c.processor.UpdateSubscription(updateCtx, req.SubscriptionID, params)
	if err != nil {
		return nil, err
	}

	// Stripe succeeded; an internal failure from here on is a logged
	// reconciliation gap, healed by the next subscription.updated webhook.
	// Only the plan reference is written here; status transitions are owned
	// by the webhook processor.
	if err := c.store.SyncPlan(req.SubscriptionID, newPlan.ID); err != nil {
		utils.LogError(err, "reconciliation gap: stripe subscription "+req.SubscriptionID+" changed to "+newPlan.Name+" but the local record was not updated")
	}

	return &ChangeResult{
		SubscriptionID:   updated.ID,
		Status:           string(updated.Status),
		PlanName:         newPlan.Name,
		CurrentPeriodEnd: currentPeriodEnd(updated),
	}, nil
}

func currentPeriodEnd(sub *stripe.Subscription) int64 {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return 0
	}
	return sub.Items.Data[0].CurrentPeriodEnd
}
