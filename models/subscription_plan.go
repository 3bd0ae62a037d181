package models

import (
	"time"
)

// SubscriptionPlan is immutable reference data mapping a plan name to its
// Stripe prices. A plan with no price ids is a zero-cost plan that never
// reaches Stripe.
type SubscriptionPlan struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name                 string    `json:"name" gorm:"uniqueIndex;not null"`
	StripePriceIDMonthly string    `json:"stripePriceIdMonthly" gorm:"column:stripe_price_id_monthly"`
	StripePriceIDYearly  string    `json:"stripePriceIdYearly" gorm:"column:stripe_price_id_yearly"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (p *SubscriptionPlan) IsFree() bool {
	return p.StripePriceIDMonthly == "" && p.StripePriceIDYearly == ""
}

// PriceID returns the Stripe price for the requested billing interval.
func (p *SubscriptionPlan) PriceID(annual bool) string {
	if annual {
		return p.StripePriceIDYearly
	}
	return p.StripePriceIDMonthly
}
