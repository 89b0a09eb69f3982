// Package billing implements the billing and entitlement engine.
//
// # Overview
//
// Every user owns zero or one BillingRecord. The Manager applies the billing state machine to
// that record: onboarding upserts, plan changes with add-on reconciliation, cancellation back to
// the free plan, add-on purchases and credit-pack purchases for the image and document pools.
// Each operation is one read-modify-write of one user's record, executed through Store.Mutate
// so concurrent requests for the same user cannot lose updates.
//
// # Entitlement Rules
//
//   - Entering or leaving a plan that includes every add-on clears the add-on set.
//   - Otherwise add-ons implied by the target plan are dropped (free -> builder drops
//     coder_package) and everything else carries over, including on downgrades.
//   - Add-on purchases are rejected with PlanIncludesFeature before ownership is checked.
//   - Document packs cannot be bought on a plan with unlimited documents.
//
// # Dates
//
// Paid plans renew one calendar month or year after the start date using time.AddDate, which
// normalises overflow forward: January 31 plus one month is March 3 (March 2 in a leap year).
// Free plans have no end or renewal date.
//
// # Usage Example
//
//	manager := billing.NewManager(store, catalog.NewStatic(catalog.Builder()))
//
//	record, err := manager.ApplyOnboarding(ctx, userID, billing.OnboardingRequest{
//		Plan:  "builder",
//		Cycle: "monthly",
//	})
//
//	receipt, err := manager.PurchaseCredits(ctx, userID, billing.CreditPurchase{
//		Pool:     "image",
//		Quantity: 10,
//	})
//	if billing.KindOf(err) == billing.KindPlanIncludesFeature {
//		// document packs on an unlimited plan
//	}
//
// # Related Packages
//
//   - pkg/catalog: plans, prices, implied add-ons and credit packs
//   - pkg/storage/postgres: transactional Store implementation
//   - pkg/storage/cache: Redis read-through cache for profiles
//   - pkg/api: HTTP handlers that map error kinds to status codes
package billing
