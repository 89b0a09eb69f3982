package billing

import (
	"time"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// Schedule computes the end and next billing dates for a subscription starting at start.
// Free plans never renew. Calendar arithmetic is time.AddDate, so month-end overflow rolls
// into the following month.
func Schedule(start time.Time, plan catalog.Plan, cycle catalog.Cycle) (end, next *time.Time) {
	if plan.Free {
		return nil, nil
	}

	var renew time.Time
	if cycle == catalog.CycleAnnual {
		renew = start.AddDate(1, 0, 0)
	} else {
		renew = start.AddDate(0, 1, 0)
	}
	endDate, nextDate := renew, renew
	return &endDate, &nextDate
}

// PaymentStatusFor returns the payment status a plan starts in
func PaymentStatusFor(plan catalog.Plan) PaymentStatus {
	if plan.Free {
		return PaymentStatusActive
	}
	return PaymentStatusPending
}

// ReconcileAddOns edits the add-on set for a plan transition. Entering or leaving an
// all-inclusive plan clears the set. Otherwise only add-ons the target plan starts to include
// are dropped; a transition that grants nothing new (a cycle change, a downgrade) carries the
// set over unchanged.
func ReconcileAddOns(from, to catalog.Plan, current AddOnSet) AddOnSet {
	if from.IncludesAllAddOns || to.IncludesAllAddOns {
		return NewAddOnSet()
	}
	var gained []catalog.AddOnID
	for _, id := range to.Includes {
		if !from.Implies(id) {
			gained = append(gained, id)
		}
	}
	return current.Without(gained...)
}

// CheckAddOnPurchase validates buying an add-on on a plan. Plan implication is checked
// before ownership.
func CheckAddOnPurchase(plan catalog.Plan, owned AddOnSet, id catalog.AddOnID) error {
	if plan.Implies(id) {
		return NewError(KindPlanIncludesFeature, "%s plan already includes %s", plan.ID, id)
	}
	if owned.Has(id) {
		return NewError(KindAlreadyOwned, "%s is already owned", id)
	}
	return nil
}

// CheckCreditQuantity validates that a purchase is exactly one pack
func CheckCreditQuantity(pack catalog.CreditPack, quantity int) error {
	if quantity != pack.Size {
		return NewError(KindInvalidInput, "%s credits are sold in packs of %d, got %d", pack.Pool, pack.Size, quantity)
	}
	return nil
}

// CheckCreditPlan validates that the plan does not already grant the pool
func CheckCreditPlan(plan catalog.Plan, pool catalog.Pool) error {
	if pool == catalog.PoolDocument && plan.UnlimitedDocuments {
		return NewError(KindPlanIncludesFeature, "%s plan already includes unlimited documents", plan.ID)
	}
	return nil
}

// applyPlan overwrites the subscription fields of a record for a plan starting at now
func applyPlan(rec *BillingRecord, plan catalog.Plan, cycle catalog.Cycle, now time.Time) error {
	price, err := catalog.PlanPrice(plan, cycle)
	if err != nil {
		return WrapError(KindInvalidInput, err, "invalid plan")
	}
	rec.SelectedPlan = plan.ID
	rec.BillingCycle = cycle
	rec.PlanPrice = price
	rec.SubscriptionStartDate = now
	rec.SubscriptionEndDate, rec.NextBillingDate = Schedule(now, plan, cycle)
	rec.Status = StatusActive
	rec.PaymentStatus = PaymentStatusFor(plan)
	return nil
}

// planOf resolves a record's plan. A plan missing from the current catalog (after a catalog
// swap) resolves to a bare plan with no entitlements.
func planOf(cat *catalog.Catalog, id catalog.PlanID) catalog.Plan {
	plan, err := cat.Plan(id)
	if err != nil {
		return catalog.Plan{ID: id}
	}
	return plan
}
