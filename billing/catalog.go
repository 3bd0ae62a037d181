package billing

import (
	"fmt"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
)

// planTiers is the fixed upgrade ordering. The zero-cost plan has no tier
// and can never be the target of a plan change.
var planTiers = map[string]int{
	"Standard": 1,
	"Pro":      2,
	"Elite":    3,
}

// Catalog resolves Stripe price ids and plan names to plan records. A miss
// is a configuration error: the catalog is reference data and callers must
// abort rather than guess.
type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

func (c *Catalog) ByName(name string) (*models.SubscriptionPlan, error) {
	plan, err := c.store.PlanByName(name)
	if err != nil {
		return nil, fmt.Errorf("looking up plan %q: %w", name, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan named %q", ErrPlanNotConfigured, name)
	}
	return plan, nil
}

// ByPriceID matches against both the monthly and yearly price columns.
func (c *Catalog) ByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	plan, err := c.store.PlanByPriceID(priceID)
	if err != nil {
		return nil, fmt.Errorf("looking up price %q: %w", priceID, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan with price %q", ErrPlanNotConfigured, priceID)
	}
	return plan, nil
}

// TierRank returns the plan's position in the upgrade ordering.
func TierRank(planName string) (int, bool) {
	rank, ok := planTiers[planName]
	return rank, ok
}
