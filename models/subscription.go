package models

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription mirrors a Stripe subscription. The authoritative copy of
// status and plan lives at Stripe; this record is kept in sync by the
// webhook processor. UserID stays null until account creation links the
// record, and is set at most once. Zero-cost plans have no Stripe ids.
type Subscription struct {
	ID                   string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID               *string            `json:"userId" gorm:"type:uuid;index"`
	PlanID               string             `json:"planId" gorm:"type:uuid;not null"`
	Plan                 *SubscriptionPlan  `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	Status               SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	StripeSubscriptionID string             `json:"stripeSubscriptionId" gorm:"index"`
	StripeCustomerID     string             `json:"stripeCustomerId" gorm:"index"`
	StripeSessionID      string             `json:"stripeSessionId" gorm:"index"`
	AccountCreated       bool               `json:"accountCreated"`
	PromoCode            string             `json:"promoCode"`
	FreePeriodEnd        *time.Time         `json:"freePeriodEnd"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}
