package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
)

// memStore is an in-memory Store with hooks for injecting failures at the
// points the linker compensates on.
type memStore struct {
	mu       sync.Mutex
	plans    []*models.SubscriptionPlan
	subs     []*models.Subscription
	payments []*models.SubscriptionPayment
	users    []*models.User

	failCreateUser bool
	failCreateSub  bool
	failLink       bool
	// deleteUserFailures makes the first N DeleteUser calls fail.
	deleteUserFailures int
	deleteUserCalls    int
	syncCalls          int
	planSyncCalls      int
	failSync           bool
}

func newMemStore(plans ...*models.SubscriptionPlan) *memStore {
	return &memStore{plans: plans}
}

func (s *memStore) PlanByName(name string) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (s *memStore) PlanByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if priceID != "" && (p.StripePriceIDMonthly == priceID || p.StripePriceIDYearly == priceID) {
			return p, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateSubscription(sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateSub {
		return fmt.Errorf("induced subscription insert failure")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	cp := *sub
	s.subs = append(s.subs, &cp)
	return nil
}

func (s *memStore) SubscriptionByStripeID(stripeSubID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if stripeSubID != "" && sub.StripeSubscriptionID == stripeSubID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) SubscriptionBySessionID(sessionID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sessionID != "" && sub.StripeSessionID == sessionID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) SubscriptionByCustomerID(customerID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if customerID != "" && sub.StripeCustomerID == customerID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CurrentSubscriptionForUser(userID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID != nil && *sub.UserID == userID && sub.Status != models.SubscriptionCancelled {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) HasLinkedSubscription(customerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.StripeCustomerID == customerID && sub.UserID != nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) LinkToUser(customerID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLink {
		return 0, fmt.Errorf("induced link failure")
	}
	var rows int64
	for _, sub := range s.subs {
		if sub.StripeCustomerID == customerID && sub.UserID == nil {
			id := userID
			sub.UserID = &id
			sub.AccountCreated = true
			rows++
		}
	}
	return rows, nil
}

func (s *memStore) SyncPlan(stripeSubID, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planSyncCalls++
	if s.failSync {
		return fmt.Errorf("induced sync failure")
	}
	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeSubID {
			sub.PlanID = planID
		}
	}
	return nil
}

func (s *memStore) SyncPlanStatus(stripeSubID, planID string, status models.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCalls++
	if s.failSync {
		return fmt.Errorf("induced sync failure")
	}
	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeSubID {
			sub.PlanID = planID
			sub.Status = status
		}
	}
	return nil
}

func (s *memStore) MarkCancelled(stripeSubID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeSubID {
			sub.Status = models.SubscriptionCancelled
		}
	}
	return nil
}

func (s *memStore) RecordPayment(payment *models.SubscriptionPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.StripePaymentIntentID == payment.StripePaymentIntentID {
			return nil
		}
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	cp := *payment
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *memStore) UserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateUser {
		return fmt.Errorf("induced user insert failure")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}

func (s *memStore) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteUserCalls++
	if s.deleteUserCalls <= s.deleteUserFailures {
		return fmt.Errorf("induced delete failure")
	}
	for i, u := range s.users {
		if u.ID == userID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) subscription(stripeSubID string) *models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeSubID {
			return sub
		}
	}
	return nil
}

// fakeProcessor stands in for Stripe; unset hooks fail the call.
type fakeProcessor struct {
	mu sync.Mutex

	checkoutSessionFn func(sessionID string) (*stripe.CheckoutSession, error)
	createSessionFn   func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	subscriptionFn    func(subscriptionID string) (*stripe.Subscription, error)
	updateFn          func(subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	constructFn       func(payload []byte, sigHeader string) (stripe.Event, error)

	subscriptionCalls int
	updateCalls       int
	lastUpdateParams  *stripe.SubscriptionParams
}

func (p *fakeProcessor) CheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if p.checkoutSessionFn == nil {
		return nil, fmt.Errorf("unexpected CheckoutSession call for %s", sessionID)
	}
	return p.checkoutSessionFn(sessionID)
}

func (p *fakeProcessor) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if p.createSessionFn == nil {
		return nil, fmt.Errorf("unexpected CreateCheckoutSession call")
	}
	return p.createSessionFn(params)
}

func (p *fakeProcessor) Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	p.mu.Lock()
	p.subscriptionCalls++
	p.mu.Unlock()
	if p.subscriptionFn == nil {
		return nil, fmt.Errorf("unexpected Subscription call for %s", subscriptionID)
	}
	return p.subscriptionFn(subscriptionID)
}

func (p *fakeProcessor) UpdateSubscription(ctx context.Context, subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	p.mu.Lock()
	p.updateCalls++
	p.lastUpdateParams = params
	p.mu.Unlock()
	if p.updateFn == nil {
		return nil, fmt.Errorf("unexpected UpdateSubscription call for %s", subscriptionID)
	}
	return p.updateFn(subscriptionID, params)
}

func (p *fakeProcessor) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if p.constructFn == nil {
		return stripe.Event{}, fmt.Errorf("unexpected ConstructEvent call")
	}
	return p.constructFn(payload, sigHeader)
}
