package billing

import (
	"time"
)

// Stripe metadata keys carried on checkout sessions and subscriptions.
const (
	metaPlanName      = "plan_name"
	metaFreePeriodEnd = "free_period_end"
	metaPromoCode     = "promo_code_applied"
)

// The free period ends at end of day May 31st Pacific Time
// (May 31st, 2026 11:59:59 PM PDT = June 1st, 2026 6:59:59 AM UTC).
var FreePeriodEndDate = time.Date(2026, time.June, 1, 6, 59, 59, 0, time.UTC)

// freePeriodEndMetadata is the marker value written into subscription
// metadata when the free period is applied.
const freePeriodEndMetadata = "2026-05-31"

// ValidPromoCodes are the promo identifiers product still honors.
var ValidPromoCodes = []string{"TODD-OZL-2026", "MICHAEL-OZL-2026", "JEFF-OZL-2026", "LUCBRO"}

func IsValidPromoCode(code string) bool {
	for _, valid := range ValidPromoCodes {
		if code == valid {
			return true
		}
	}
	return false
}

// hasPromoMetadata reports whether a subscription carries a recognized
// promotional marker: either a valid promo code or the free-period marker.
func hasPromoMetadata(metadata map[string]string) bool {
	if IsValidPromoCode(metadata[metaPromoCode]) {
		return true
	}
	return metadata[metaFreePeriodEnd] == freePeriodEndMetadata
}

// InFreeWindow reports whether the promotional free period is still open.
func InFreeWindow(now time.Time) bool {
	return now.Before(FreePeriodEndDate)
}
