package stripe

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/paramvora-myacara/oz-homepage-sub003/billing"
	"github.com/paramvora-myacara/oz-homepage-sub003/models"
)

// stubStore satisfies billing.Store with canned responses; zero values mean
// "no row" so each test only sets what it needs.
type stubStore struct {
	plans        []*models.SubscriptionPlan
	subBySession *models.Subscription
	subByCust    *models.Subscription
	subByStripe  *models.Subscription
	currentSub   *models.Subscription

	markCancelledErr error
	cancelled        []string
}

func (s *stubStore) PlanByName(name string) (*models.SubscriptionPlan, error) {
	for _, p := range s.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (s *stubStore) PlanByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	for _, p := range s.plans {
		if priceID != "" && (p.StripePriceIDMonthly == priceID || p.StripePriceIDYearly == priceID) {
			return p, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CreateSubscription(sub *models.Subscription) error { return nil }

func (s *stubStore) SubscriptionByStripeID(string) (*models.Subscription, error) {
	return s.subByStripe, nil
}

func (s *stubStore) SubscriptionBySessionID(string) (*models.Subscription, error) {
	return s.subBySession, nil
}

func (s *stubStore) SubscriptionByCustomerID(string) (*models.Subscription, error) {
	return s.subByCust, nil
}

func (s *stubStore) CurrentSubscriptionForUser(string) (*models.Subscription, error) {
	return s.currentSub, nil
}

func (s *stubStore) HasLinkedSubscription(string) (bool, error) { return false, nil }

func (s *stubStore) LinkToUser(string, string) (int64, error) { return 1, nil }

func (s *stubStore) SyncPlan(string, string) error { return nil }

func (s *stubStore) SyncPlanStatus(string, string, models.SubscriptionStatus) error { return nil }

func (s *stubStore) MarkCancelled(stripeSubID string) error {
	if s.markCancelledErr != nil {
		return s.markCancelledErr
	}
	s.cancelled = append(s.cancelled, stripeSubID)
	return nil
}

func (s *stubStore) RecordPayment(*models.SubscriptionPayment) error { return nil }

func (s *stubStore) UserByEmail(string) (*models.User, error) { return nil, nil }

func (s *stubStore) CreateUser(user *models.User) error { return nil }

func (s *stubStore) DeleteUser(string) error { return nil }

type stubProcessor struct {
	checkoutSessionFn func(sessionID string) (*stripe.CheckoutSession, error)
	createSessionFn   func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	constructFn       func(payload []byte, sigHeader string) (stripe.Event, error)
}

func (p *stubProcessor) CheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if p.checkoutSessionFn == nil {
		return nil, fmt.Errorf("unexpected CheckoutSession call")
	}
	return p.checkoutSessionFn(sessionID)
}

func (p *stubProcessor) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if p.createSessionFn == nil {
		return nil, fmt.Errorf("unexpected CreateCheckoutSession call")
	}
	return p.createSessionFn(params)
}

func (p *stubProcessor) Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return nil, fmt.Errorf("unexpected Subscription call")
}

func (p *stubProcessor) UpdateSubscription(ctx context.Context, subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return nil, fmt.Errorf("unexpected UpdateSubscription call")
}

func (p *stubProcessor) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if p.constructFn == nil {
		return stripe.Event{}, fmt.Errorf("unexpected ConstructEvent call")
	}
	return p.constructFn(payload, sigHeader)
}

// stubChanger lets the endpoint tests drive every branch of the error
// mapping without a Stripe round trip.
type stubChanger struct {
	result *billing.ChangeResult
	err    error
}

func (c *stubChanger) ChangePlan(ctx context.Context, req billing.ChangeRequest) (*billing.ChangeResult, error) {
	return c.result, c.err
}
