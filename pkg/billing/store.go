package billing

import (
	"context"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// MutateFunc computes the next state of a billing record. current is nil when the user has no
// record yet (only possible with MutateOptions.Create). Returning an error aborts the mutation
// without writing anything.
type MutateFunc func(current *BillingRecord) (*BillingRecord, error)

// MutateOptions controls Store.Mutate
type MutateOptions struct {
	// Create allows the mutation to run when the user has no billing record
	Create bool
	// ProjectID, when set, must name a project owned by the user; it is checked inside the
	// same transaction as the mutation and fails with KindNotFound otherwise
	ProjectID *int64
}

// Store is the transactional persistence the Manager depends on
type Store interface {
	// GetProfile returns the user and their billing record (nil when absent).
	// Fails with KindNotFound when the user does not exist.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// Mutate reads the user's billing record under a row lock, applies fn and writes the
	// result in the same transaction. Fails with KindNotFound when the user does not exist and
	// KindNoBillingRecord when the record is absent and opts.Create is false.
	Mutate(ctx context.Context, userID int64, opts MutateOptions, fn MutateFunc) (*BillingRecord, error)

	// DeleteAccount removes the user, their billing record and their projects atomically
	DeleteAccount(ctx context.Context, userID int64) error

	// CountByPlan returns the number of billing records per plan
	CountByPlan(ctx context.Context) (map[catalog.PlanID]int64, error)
}
