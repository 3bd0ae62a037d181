package models

import (
	"time"
)

// SubscriptionPayment records one successful invoice payment. The unique
// index on the payment intent id makes replayed webhook deliveries
// insert-or-ignore.
type SubscriptionPayment struct {
	ID                    string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SubscriptionID        string    `json:"subscriptionId" gorm:"type:uuid;not null;index"`
	Amount                int       `json:"amount"`
	PaidAt                time.Time `json:"paidAt"`
	StripePaymentIntentID string    `json:"stripePaymentIntentId" gorm:"uniqueIndex"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
