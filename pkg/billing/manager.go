package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/launchpad/pkg/async"
	"github.com/platinummonkey/launchpad/pkg/audit"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

const (
	tracerName   = "github.com/platinummonkey/launchpad/pkg/billing"
	auditTimeout = 5 * time.Second
)

// Manager owns the billing record lifecycle of every user. It holds no per-user state: each
// operation is one Store.Mutate call whose closure applies the pure rules in rules.go.
type Manager struct {
	store    Store
	catalogs catalog.Source
	now      func() time.Time
	newID    func() (uuid.UUID, error)
	audit    audit.Logger
	runner   *async.Runner
	tracer   trace.Tracer
	metrics  *observability.Metrics
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces uuid.NewV7 for purchase ids
func WithIDGenerator(newID func() (uuid.UUID, error)) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithAuditLogger records an audit event for every successful mutation, written in the
// background by runner
func WithAuditLogger(logger audit.Logger, runner *async.Runner) Option {
	return func(m *Manager) {
		m.audit = logger
		m.runner = runner
	}
}

// WithMetrics counts operations by outcome along with plan changes and purchases
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a billing manager over store, pricing from whichever catalog source
// currently holds
func NewManager(store Store, source catalog.Source, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		catalogs: source,
		now:      time.Now,
		newID:    uuid.NewV7,
		audit:    audit.NoOp(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.runner == nil {
		m.runner = async.NewRunner(nil)
	}
	return m
}

// clock returns the current time in UTC at the microsecond precision Postgres stores
func (m *Manager) clock() time.Time {
	return m.now().UTC().Truncate(time.Microsecond)
}

// Catalog returns the catalog currently in effect
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalogs.Current()
}

// Wait blocks until pending audit writes finish or ctx is done
func (m *Manager) Wait(ctx context.Context) error {
	return m.runner.Wait(ctx)
}

// ApplyOnboarding creates or fully replaces the user's subscription. Add-ons are validated
// against the catalog but trusted as-is otherwise; credit balances are left untouched.
func (m *Manager) ApplyOnboarding(ctx context.Context, userID int64, req OnboardingRequest) (rec *BillingRecord, err error) {
	ctx, span := m.start(ctx, "ApplyOnboarding", userID)
	defer func() { m.finish(span, "ApplyOnboarding", err) }()

	cat := m.catalogs.Current()
	plan, cycle, err := resolvePlan(cat, req.Plan, req.Cycle)
	if err != nil {
		return nil, err
	}
	ids := make([]catalog.AddOnID, 0, len(req.AddOns))
	for _, raw := range req.AddOns {
		addOn, err := cat.AddOn(catalog.AddOnID(raw))
		if err != nil {
			return nil, WrapError(KindInvalidInput, err, "invalid add-on")
		}
		ids = append(ids, addOn.ID)
	}

	now := m.clock()
	created := false
	rec, err = m.store.Mutate(ctx, userID, MutateOptions{Create: true}, func(current *BillingRecord) (*BillingRecord, error) {
		next := current.Clone()
		if next == nil {
			created = true
			next = &BillingRecord{UserID: userID, CreatedAt: now}
		}
		if err := applyPlan(next, plan, cycle, now); err != nil {
			return nil, err
		}
		next.AddOns = NewAddOnSet(ids...)
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	m.emit(ctx, audit.EventTypeOnboarding, userID, "subscription onboarded", map[string]interface{}{
		"plan":    string(plan.ID),
		"cycle":   string(cycle),
		"add_ons": rec.AddOns.Strings(),
		"created": created,
	})
	return rec, nil
}

// GetBillingForUser returns the user's profile with their billing record, or a nil record
// when they have not onboarded
func (m *Manager) GetBillingForUser(ctx context.Context, userID int64) (profile *Profile, err error) {
	ctx, span := m.start(ctx, "GetBillingForUser", userID)
	defer func() { m.finish(span, "GetBillingForUser", err) }()

	return m.store.GetProfile(ctx, userID)
}

// ChangePlan moves an existing subscription to another plan or cycle, reconciling add-ons so
// none duplicates an entitlement of the target plan
func (m *Manager) ChangePlan(ctx context.Context, userID int64, planID, cycleName string) (rec *BillingRecord, err error) {
	ctx, span := m.start(ctx, "ChangePlan", userID)
	defer func() { m.finish(span, "ChangePlan", err) }()

	cat := m.catalogs.Current()
	to, cycle, err := resolvePlan(cat, planID, cycleName)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	var from catalog.PlanID
	var dropped []string
	rec, err = m.store.Mutate(ctx, userID, MutateOptions{}, func(current *BillingRecord) (*BillingRecord, error) {
		next := current.Clone()
		from = current.SelectedPlan
		next.AddOns = ReconcileAddOns(planOf(cat, from), to, current.AddOns)
		dropped = current.AddOns.Without(next.AddOns.Slice()...).Strings()
		if err := applyPlan(next, to, cycle, now); err != nil {
			return nil, err
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	m.count(func(metrics *observability.Metrics) {
		metrics.PlanChangesTotal.WithLabelValues(string(from), string(to.ID)).Inc()
	})
	m.emit(ctx, audit.EventTypePlanChange, userID, "plan changed", map[string]interface{}{
		"from_plan":       string(from),
		"to_plan":         string(to.ID),
		"cycle":           string(cycle),
		"dropped_add_ons": dropped,
	})
	return rec, nil
}

// Cancel resets a paid subscription to the free plan on a monthly cycle
func (m *Manager) Cancel(ctx context.Context, userID int64) (rec *BillingRecord, err error) {
	ctx, span := m.start(ctx, "Cancel", userID)
	defer func() { m.finish(span, "Cancel", err) }()

	cat := m.catalogs.Current()
	free := cat.FreePlan()

	now := m.clock()
	var from catalog.PlanID
	rec, err = m.store.Mutate(ctx, userID, MutateOptions{}, func(current *BillingRecord) (*BillingRecord, error) {
		if current.SelectedPlan == free.ID {
			return nil, NewError(KindInvalidState, "subscription is already on the %s plan", free.ID)
		}
		from = current.SelectedPlan
		next := current.Clone()
		next.AddOns = ReconcileAddOns(planOf(cat, from), free, current.AddOns)
		if err := applyPlan(next, free, catalog.CycleMonthly, now); err != nil {
			return nil, err
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	m.count(func(metrics *observability.Metrics) {
		metrics.PlanChangesTotal.WithLabelValues(string(from), string(free.ID)).Inc()
	})
	m.emit(ctx, audit.EventTypeCancel, userID, "subscription cancelled", map[string]interface{}{
		"from_plan": string(from),
	})
	return rec, nil
}

// PurchaseAddon adds an add-on to the subscription. Plan implication is checked before
// ownership, so a plan that includes the add-on always reports PlanIncludesFeature.
func (m *Manager) PurchaseAddon(ctx context.Context, userID int64, addOnID string) (rec *BillingRecord, err error) {
	ctx, span := m.start(ctx, "PurchaseAddon", userID)
	defer func() { m.finish(span, "PurchaseAddon", err) }()

	cat := m.catalogs.Current()
	addOn, err := cat.AddOn(catalog.AddOnID(addOnID))
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "invalid add-on")
	}
	span.SetAttributes(attribute.String("billing.add_on", string(addOn.ID)))

	now := m.clock()
	rec, err = m.store.Mutate(ctx, userID, MutateOptions{}, func(current *BillingRecord) (*BillingRecord, error) {
		if err := CheckAddOnPurchase(planOf(cat, current.SelectedPlan), current.AddOns, addOn.ID); err != nil {
			return nil, err
		}
		next := current.Clone()
		next.AddOns = current.AddOns.With(addOn.ID)
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	m.count(func(metrics *observability.Metrics) {
		metrics.AddOnPurchasesTotal.WithLabelValues(string(addOn.ID)).Inc()
	})
	m.emit(ctx, audit.EventTypeAddOnPurchase, userID, "add-on purchased", map[string]interface{}{
		"add_on": string(addOn.ID),
		"price":  addOn.Price.String(),
	})
	return rec, nil
}

// PurchaseCredits buys exactly one pack for a credit pool. The balance, the purchase counter and
// the history entry are written together.
func (m *Manager) PurchaseCredits(ctx context.Context, userID int64, req CreditPurchase) (receipt *CreditReceipt, err error) {
	ctx, span := m.start(ctx, "PurchaseCredits", userID)
	defer func() { m.finish(span, "PurchaseCredits", err) }()

	cat := m.catalogs.Current()
	pool, err := catalog.ParsePool(req.Pool)
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "invalid credit pool")
	}
	pack, err := cat.Pack(pool)
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "invalid credit pool")
	}
	if err := CheckCreditQuantity(pack, req.Quantity); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("billing.pool", string(pool)))

	// Only document credits are tracked per project
	var projectID *int64
	if pool == catalog.PoolDocument {
		projectID = req.ProjectID
	}

	id, err := m.newID()
	if err != nil {
		return nil, WrapError(KindUnavailable, err, "failed to generate purchase id")
	}

	now := m.clock()
	purchase := PurchaseRecord{
		ID:          id.String(),
		Pool:        pool,
		PackType:    pack.ID,
		Quantity:    pack.Size,
		UnitPrice:   pack.UnitPrice,
		TotalPrice:  pack.Total(),
		PurchasedAt: now,
		ProjectID:   projectID,
	}

	rec, err := m.store.Mutate(ctx, userID, MutateOptions{ProjectID: projectID}, func(current *BillingRecord) (*BillingRecord, error) {
		if err := CheckCreditPlan(planOf(cat, current.SelectedPlan), pool); err != nil {
			return nil, err
		}
		next := current.Clone()
		next.recordPurchase(purchase)
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	m.count(func(metrics *observability.Metrics) {
		metrics.CreditsPurchasedTotal.WithLabelValues(string(pool)).Add(float64(purchase.Quantity))
	})
	metadata := map[string]interface{}{
		"pool":        string(pool),
		"quantity":    purchase.Quantity,
		"total_price": purchase.TotalPrice.String(),
		"purchase_id": purchase.ID,
	}
	if projectID != nil {
		metadata["project_id"] = *projectID
	}
	m.emit(ctx, audit.EventTypeCreditPurchase, userID, "credits purchased", metadata)

	return &CreditReceipt{
		PurchaseID: purchase.ID,
		Pool:       pool,
		Balance:    rec.Credits(pool),
		Purchase:   purchase,
		Billing:    rec,
	}, nil
}

// DeleteAccount removes the user with their billing record and projects in one transaction
func (m *Manager) DeleteAccount(ctx context.Context, userID int64) (err error) {
	ctx, span := m.start(ctx, "DeleteAccount", userID)
	defer func() { m.finish(span, "DeleteAccount", err) }()

	if err := m.store.DeleteAccount(ctx, userID); err != nil {
		return err
	}

	event := audit.NewEvent(ctx, audit.EventTypeAccountDelete, userID, audit.ResourceTypeUser, strconv.FormatInt(userID, 10))
	event.Message = "account deleted"
	m.log(ctx, event)
	return nil
}

func resolvePlan(cat *catalog.Catalog, planID, cycleName string) (catalog.Plan, catalog.Cycle, error) {
	plan, err := cat.Plan(catalog.PlanID(planID))
	if err != nil {
		return catalog.Plan{}, "", WrapError(KindInvalidInput, err, "invalid plan")
	}
	cycle, err := catalog.ParseCycle(cycleName)
	if err != nil {
		return catalog.Plan{}, "", WrapError(KindInvalidInput, err, "invalid billing cycle")
	}
	return plan, cycle, nil
}

func (m *Manager) emit(ctx context.Context, eventType audit.EventType, userID int64, message string, metadata map[string]interface{}) {
	event := audit.NewEvent(ctx, eventType, userID, audit.ResourceTypeBilling, strconv.FormatInt(userID, 10))
	event.Message = message
	for k, v := range metadata {
		event.Metadata[k] = v
	}
	m.log(ctx, event)
}

func (m *Manager) log(ctx context.Context, event *audit.AuditEvent) {
	event.Timestamp = m.clock()
	m.runner.Go(ctx, auditTimeout, "audit "+string(event.EventType), func(ctx context.Context) error {
		return m.audit.Log(ctx, event)
	})
}

func (m *Manager) start(ctx context.Context, op string, userID int64) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "billing."+op, trace.WithAttributes(attribute.Int64("user.id", userID)))
}

func (m *Manager) count(fn func(*observability.Metrics)) {
	if m.metrics != nil {
		fn(m.metrics)
	}
}

// finish ends span, marking it failed with the error kind when err is set, and counts the
// operation's outcome
func (m *Manager) finish(span trace.Span, op string, err error) {
	m.metrics.ObserveOperation(op, err, outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := KindOf(err); kind != "" {
			span.SetAttributes(attribute.String("billing.error_kind", string(kind)))
		}
	}
	span.End()
}

// outcome labels an operation failure by kind; unclassified errors are "internal"
func outcome(err error) string {
	if kind := KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal"
}
