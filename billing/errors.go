package billing

import (
	"errors"
)

var (
	// ErrInvalidSignature rejects a webhook delivery before any handler runs.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrPaymentIncomplete means the checkout session has not been paid.
	// Nothing has been mutated when it is returned.
	ErrPaymentIncomplete = errors.New("payment not completed")

	// ErrAlreadyExists means the email is registered or the Stripe customer
	// is already linked to an account.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrPlanNotConfigured means the plan catalog has no matching entry.
	// Callers must abort; this is an operator problem, not a user one.
	ErrPlanNotConfigured = errors.New("plan not configured")

	// ErrPersistence wraps storage failures during account creation.
	ErrPersistence = errors.New("persistence failure")

	// ErrLinkingFailed means no unlinked subscription matched the Stripe
	// customer of a verified checkout session.
	ErrLinkingFailed = errors.New("no unlinked subscription to attach")

	ErrUnknownPlan = errors.New("unknown plan")
	ErrNotFound    = errors.New("subscription not found")

	// ErrDowngradeNotAllowed is a business-rule rejection, surfaced
	// distinctly from technical failures so the UI can explain it.
	ErrDowngradeNotAllowed = errors.New("downgrades are not available during the promotional period")

	// ErrNoActiveSubscription means the caller has no Stripe subscription
	// (zero-cost plan) and must use the upgrade flow instead.
	ErrNoActiveSubscription = errors.New("no active stripe subscription")
)
