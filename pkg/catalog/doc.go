// Package catalog holds the plan, add-on and credit-pack catalog that drives billing.
//
// # Overview
//
// Plans, their base prices, the add-ons each plan implies and the fixed credit packs are data,
// not code. The billing engine asks a Source for the current Catalog on every operation, so a
// catalog can be swapped (built-in or YAML file, optionally hot-reloaded) without touching the
// state machine.
//
// # Built-in Catalogs
//
// builder (default):
//   - free: $0, 3 base documents per project
//   - builder: $5/month, includes coder_package, 10 base documents per project
//   - enterprise: $15/month, includes every add-on, unlimited documents
//
// legacy:
//   - free: $0
//   - pro: $29/month, includes coder_package
//   - enterprise: $99/month, includes every add-on, unlimited documents
//
// Both catalogs sell coder_package and database_package add-ons, an image pack of 10 credits
// and a document pack of 5 credits.
//
// # Pricing
//
// Monthly price is the plan base price. Annual price is the base price discounted by 20% and
// rounded half-up to a whole currency unit. The free plan is always 0.
//
// # Usage Example
//
//	cat := catalog.Builder()
//	price, err := cat.Price("builder", catalog.CycleAnnual) // 4
//
//	w, err := catalog.NewWatcher("/etc/launchpad/catalog.yaml", logger)
//	go w.Run(ctx)
//	current := w.Current()
//
// # Related Packages
//
//   - pkg/billing: consumes the catalog through the Source interface
//   - pkg/projects: snapshots BaseDocuments when a project is created
package catalog
