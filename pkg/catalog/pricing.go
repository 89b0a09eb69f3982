package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// annualRate is the fraction of the base price charged per period on the annual cycle
var annualRate = decimal.RequireFromString("0.8")

// Price returns the per-period price of a plan on a billing cycle.
//
// Annual pricing rounds half-up to a whole currency unit; prices are never negative so
// decimal's half-away-from-zero rounding is half-up here.
func (c *Catalog) Price(id PlanID, cycle Cycle) (decimal.Decimal, error) {
	plan, err := c.Plan(id)
	if err != nil {
		return decimal.Zero, err
	}
	return PlanPrice(plan, cycle)
}

// PlanPrice prices an already resolved plan
func PlanPrice(plan Plan, cycle Cycle) (decimal.Decimal, error) {
	if _, err := ParseCycle(string(cycle)); err != nil {
		return decimal.Zero, err
	}
	if plan.Free {
		return decimal.Zero, nil
	}
	if cycle == CycleAnnual {
		return plan.BasePrice.Mul(annualRate).Round(0), nil
	}
	return plan.BasePrice, nil
}

// Quote is a plan with both cycle prices resolved
type Quote struct {
	Plan         Plan            `json:"plan"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	AnnualPrice  decimal.Decimal `json:"annual_price"`
}

// Quotes prices every plan in catalog order
func (c *Catalog) Quotes() ([]Quote, error) {
	quotes := make([]Quote, 0, len(c.Plans))
	for _, p := range c.Plans {
		monthly, err := PlanPrice(p, CycleMonthly)
		if err != nil {
			return nil, fmt.Errorf("failed to price plan %s: %w", p.ID, err)
		}
		annual, err := PlanPrice(p, CycleAnnual)
		if err != nil {
			return nil, fmt.Errorf("failed to price plan %s: %w", p.ID, err)
		}
		quotes = append(quotes, Quote{Plan: p, MonthlyPrice: monthly, AnnualPrice: annual})
	}
	return quotes, nil
}
