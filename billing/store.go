package billing

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
)

// Store is the subscription record store. Lookups return (nil, nil) when no
// row matches. All subscription writes are keyed on Stripe-assigned
// identifiers so the webhook processor and the linker always agree on which
// row they mean.
type Store interface {
	PlanByName(name string) (*models.SubscriptionPlan, error)
	PlanByPriceID(priceID string) (*models.SubscriptionPlan, error)

	CreateSubscription(sub *models.Subscription) error
	SubscriptionByStripeID(stripeSubID string) (*models.Subscription, error)
	SubscriptionBySessionID(sessionID string) (*models.Subscription, error)
	SubscriptionByCustomerID(customerID string) (*models.Subscription, error)
	CurrentSubscriptionForUser(userID string) (*models.Subscription, error)
	HasLinkedSubscription(customerID string) (bool, error)
	// LinkToUser attaches the account to the unlinked record for the Stripe
	// customer. The predicate on user_id IS NULL makes the assignment
	// at-most-once; the number of rows updated is reported back.
	LinkToUser(customerID, userID string) (int64, error)
	// SyncPlan updates only the plan reference. Status transitions belong to
	// the webhook processor, which uses SyncPlanStatus.
	SyncPlan(stripeSubID, planID string) error
	SyncPlanStatus(stripeSubID, planID string, status models.SubscriptionStatus) error
	MarkCancelled(stripeSubID string) error
	// RecordPayment has insert-or-ignore semantics on the payment intent id.
	RecordPayment(payment *models.SubscriptionPayment) error

	UserByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
	DeleteUser(userID string) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) PlanByName(name string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.db.First(&plan, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *gormStore) PlanByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.db.
		Where("stripe_price_id_monthly = ? OR stripe_price_id_yearly = ?", priceID, priceID).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *gormStore) CreateSubscription(sub *models.Subscription) error {
	return s.db.Create(sub).Error
}

func (s *gormStore) SubscriptionByStripeID(stripeSubID string) (*models.Subscription, error) {
	return s.findSubscription("stripe_subscription_id = ?", stripeSubID)
}

func (s *gormStore) SubscriptionBySessionID(sessionID string) (*models.Subscription, error) {
	return s.findSubscription("stripe_session_id = ?", sessionID)
}

func (s *gormStore) SubscriptionByCustomerID(customerID string) (*models.Subscription, error) {
	return s.findSubscription("stripe_customer_id = ?", customerID)
}

func (s *gormStore) findSubscription(query string, args ...interface{}) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.First(&sub, append([]interface{}{query}, args...)...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) CurrentSubscriptionForUser(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.
		Preload("Plan").
		Where("user_id = ? AND status <> ?", userID, models.SubscriptionCancelled).
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) HasLinkedSubscription(customerID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Subscription{}).
		Where("stripe_customer_id = ? AND user_id IS NOT NULL", customerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) LinkToUser(customerID, userID string) (int64, error) {
	res := s.db.Model(&models.Subscription{}).
		Where("stripe_customer_id = ? AND user_id IS NULL", customerID).
		Updates(map[string]interface{}{
			"user_id":         userID,
			"account_created": true,
		})
	return res.RowsAffected, res.Error
}

func (s *gormStore) SyncPlan(stripeSubID, planID string) error {
	return s.db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubID).
		Update("plan_id", planID).Error
}

func (s *gormStore) SyncPlanStatus(stripeSubID, planID string, status models.SubscriptionStatus) error {
	return s.db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubID).
		Updates(map[string]interface{}{
			"plan_id": planID,
			"status":  status,
		}).Error
}

func (s *gormStore) MarkCancelled(stripeSubID string) error {
	return s.db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubID).
		Update("status", models.SubscriptionCancelled).Error
}

func (s *gormStore) RecordPayment(payment *models.SubscriptionPayment) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_payment_intent_id"}},
		DoNothing: true,
	}).Create(payment).Error
}

func (s *gormStore) UserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *gormStore) DeleteUser(userID string) error {
	return s.db.Delete(&models.User{}, "id = ?", userID).Error
}
