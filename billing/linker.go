package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

// SignupRequest carries a completed checkout session (paid plans) or a plan
// name (zero-cost plans), plus the desired credentials.
type SignupRequest struct {
	SessionID string
	PlanName  string
	Email     string
	Password  string
}

// DuplicateCheckResult holds the outcome of the concurrent pre-mutation
// checks. Both results are inspected sequentially before anything is written.
type DuplicateCheckResult struct {
	EmailExists        bool
	SubscriptionLinked bool
}

// Linker attaches a previously-created, unlinked subscription record to a
// freshly created account, or creates a zero-cost subscription outright.
// Every failure path after the account insert compensates by deleting the
// account again, so no partial accounts survive.
type Linker struct {
	store     Store
	processor Processor
	catalog   *Catalog
	notify    func(email, planName string)
}

func NewLinker(store Store, processor Processor, catalog *Catalog, notify func(email, planName string)) *Linker {
	return &Linker{store: store, processor: processor, catalog: catalog, notify: notify}
}

func (l *Linker) CreateAccount(ctx context.Context, req SignupRequest) (*models.User, error) {
	if req.SessionID == "" {
		return l.createFreeAccount(ctx, req)
	}
	return l.createPaidAccount(ctx, req)
}

func (l *Linker) createPaidAccount(ctx context.Context, req SignupRequest) (*models.User, error) {
	sessCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	// A timeout here is safe to report as incomplete payment: nothing has
	// been written yet.
	session, err := l.processor.CheckoutSession(sessCtx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: verifying session %s: %v", ErrPaymentIncomplete, req.SessionID, err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, fmt.Errorf("%w: session %s has status %s", ErrPaymentIncomplete, req.SessionID, session.PaymentStatus)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if customerID == "" {
		return nil, fmt.Errorf("%w: session %s carries no customer", ErrLinkingFailed, req.SessionID)
	}

	dup, err := l.runDuplicateChecks(ctx, req.Email, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate checks: %v", ErrPersistence, err)
	}
	if dup.EmailExists {
		return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	}
	if dup.SubscriptionLinked {
		return nil, fmt.Errorf("%w: an account already exists for this payment", ErrAlreadyExists)
	}

	user, err := l.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := l.store.CreateUser(user); err != nil {
		return nil, fmt.Errorf("%w: creating account: %v", ErrPersistence, err)
	}

	rows, err := l.store.LinkToUser(customerID, user.ID)
	if err != nil {
		l.compensate(user, customerID, req.SessionID)
		return nil, fmt.Errorf("%w: linking subscription: %v", ErrPersistence, err)
	}
	if rows == 0 {
		l.compensate(user, customerID, req.SessionID)
		return nil, fmt.Errorf("%w: customer %s", ErrLinkingFailed, customerID)
	}

	utils.LogSuccess("linked subscription for customer " + customerID + " to user " + user.ID)
	l.notifySignup(user.Email, session.Metadata[metaPlanName])
	return user, nil
}

func (l *Linker) createFreeAccount(ctx context.Context, req SignupRequest) (*models.User, error) {
	dup, err := l.runDuplicateChecks(ctx, req.Email, "")
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate checks: %v", ErrPersistence, err)
	}
	if dup.EmailExists {
		return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	}

	user, err := l.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := l.store.CreateUser(user); err != nil {
		return nil, fmt.Errorf("%w: creating account: %v", ErrPersistence, err)
	}

	plan, err := l.catalog.ByName(req.PlanName)
	if err != nil {
		l.compensate(user, "", "")
		return nil, err
	}
	if !plan.IsFree() {
		l.compensate(user, "", "")
		return nil, fmt.Errorf("%w: plan %s requires checkout", ErrPaymentIncomplete, plan.Name)
	}

	// A zero-cost subscription never reaches Stripe.
	sub := &models.Subscription{
		UserID:         &user.ID,
		PlanID:         plan.ID,
		Status:         models.SubscriptionActive,
		AccountCreated: true,
	}
	if err := l.store.CreateSubscription(sub); err != nil {
		l.compensate(user, "", "")
		return nil, fmt.Errorf("%w: creating subscription: %v", ErrPersistence, err)
	}

	l.notifySignup(user.Email, plan.Name)
	return user, nil
}

// runDuplicateChecks issues both reads concurrently; the results are applied
// sequentially by the callers before any mutation. customerID may be empty
// for zero-cost signups.
func (l *Linker) runDuplicateChecks(ctx context.Context, email, customerID string) (DuplicateCheckResult, error) {
	var result DuplicateCheckResult

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := l.store.UserByEmail(email)
		if err != nil {
			return err
		}
		result.EmailExists = user != nil
		return nil
	})
	if customerID != "" {
		g.Go(func() error {
			linked, err := l.store.HasLinkedSubscription(customerID)
			if err != nil {
				return err
			}
			result.SubscriptionLinked = linked
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DuplicateCheckResult{}, err
	}
	return result, nil
}

func (l *Linker) newUser(req SignupRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", ErrPersistence, err)
	}
	return &models.User{
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.CustomerRole,
	}, nil
}

// compensate removes the just-created account. It is retried once; a failed
// compensation is a fatal inconsistency that needs manual reconciliation, so
// it is logged with every processor id we have.
func (l *Linker) compensate(user *models.User, customerID, sessionID string) {
	err := l.store.DeleteUser(user.ID)
	if err != nil {
		err = l.store.DeleteUser(user.ID)
	}
	if err != nil {
		utils.LogError(err, fmt.Sprintf(
			"FATAL: orphaned account %s (%s) could not be deleted, manual reconciliation required (customer=%s session=%s)",
			user.ID, user.Email, customerID, sessionID,
		))
	}
}

func (l *Linker) notifySignup(email, planName string) {
	if l.notify == nil {
		return
	}
	// Side channel only: a notification failure must not fail the signup.
	go l.notify(email, planName)
}
