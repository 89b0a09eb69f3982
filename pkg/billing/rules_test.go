package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

func mustPlan(t *testing.T, cat *catalog.Catalog, id catalog.PlanID) catalog.Plan {
	t.Helper()
	plan, err := cat.Plan(id)
	require.NoError(t, err)
	return plan
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestSchedule(t *testing.T) {
	cat := catalog.Builder()
	builder := mustPlan(t, cat, "builder")

	tests := []struct {
		name  string
		start time.Time
		cycle catalog.Cycle
		want  time.Time
	}{
		{"monthly mid-month", date(2025, time.March, 15), catalog.CycleMonthly, date(2025, time.April, 15)},
		{"jan 31 overflows into march (non-leap)", date(2025, time.January, 31), catalog.CycleMonthly, date(2025, time.March, 3)},
		{"jan 31 overflows into march (leap)", date(2024, time.January, 31), catalog.CycleMonthly, date(2024, time.March, 2)},
		{"dec rolls into next year", date(2025, time.December, 10), catalog.CycleMonthly, date(2026, time.January, 10)},
		{"annual", date(2025, time.June, 1), catalog.CycleAnnual, date(2026, time.June, 1)},
		{"feb 29 annual overflows", date(2024, time.February, 29), catalog.CycleAnnual, date(2025, time.March, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, next := Schedule(tt.start, builder, tt.cycle)
			require.NotNil(t, end)
			require.NotNil(t, next)
			assert.Equal(t, tt.want, *end)
			assert.Equal(t, tt.want, *next)
		})
	}

	t.Run("free plan never renews", func(t *testing.T) {
		for _, cycle := range []catalog.Cycle{catalog.CycleMonthly, catalog.CycleAnnual} {
			end, next := Schedule(date(2025, time.January, 31), cat.FreePlan(), cycle)
			assert.Nil(t, end)
			assert.Nil(t, next)
		}
	})
}

func TestPaymentStatusFor(t *testing.T) {
	cat := catalog.Builder()
	assert.Equal(t, PaymentStatusActive, PaymentStatusFor(cat.FreePlan()))
	assert.Equal(t, PaymentStatusPending, PaymentStatusFor(mustPlan(t, cat, "builder")))
	assert.Equal(t, PaymentStatusPending, PaymentStatusFor(mustPlan(t, cat, "enterprise")))
}

func TestReconcileAddOns(t *testing.T) {
	cat := catalog.Builder()
	free := mustPlan(t, cat, "free")
	builder := mustPlan(t, cat, "builder")
	enterprise := mustPlan(t, cat, "enterprise")

	both := NewAddOnSet(catalog.AddOnCoder, catalog.AddOnDatabase)

	tests := []struct {
		name     string
		from, to catalog.Plan
		current  AddOnSet
		want     []catalog.AddOnID
	}{
		{"free to builder drops coder", free, builder, both, []catalog.AddOnID{catalog.AddOnDatabase}},
		{"free to enterprise clears", free, enterprise, both, []catalog.AddOnID{}},
		{"builder to enterprise clears", builder, enterprise, NewAddOnSet(catalog.AddOnDatabase), []catalog.AddOnID{}},
		{"enterprise to free clears", enterprise, free, both, []catalog.AddOnID{}},
		{"enterprise to builder clears", enterprise, builder, both, []catalog.AddOnID{}},
		{"builder to free carries", builder, free, NewAddOnSet(catalog.AddOnDatabase), []catalog.AddOnID{catalog.AddOnDatabase}},
		{"free to free carries", free, free, both, []catalog.AddOnID{catalog.AddOnCoder, catalog.AddOnDatabase}},
		{"builder to builder carries", builder, builder, both, []catalog.AddOnID{catalog.AddOnCoder, catalog.AddOnDatabase}},
		{"empty stays empty", free, builder, NewAddOnSet(), []catalog.AddOnID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileAddOns(tt.from, tt.to, tt.current)
			assert.Equal(t, tt.want, got.Slice())
		})
	}

	t.Run("input set is not modified", func(t *testing.T) {
		current := NewAddOnSet(catalog.AddOnCoder)
		_ = ReconcileAddOns(free, builder, current)
		assert.True(t, current.Has(catalog.AddOnCoder))
	})

	t.Run("legacy pro behaves like builder", func(t *testing.T) {
		legacy := catalog.Legacy()
		got := ReconcileAddOns(mustPlan(t, legacy, "free"), mustPlan(t, legacy, "pro"), both)
		assert.Equal(t, []catalog.AddOnID{catalog.AddOnDatabase}, got.Slice())
	})
}

func TestCheckAddOnPurchase(t *testing.T) {
	cat := catalog.Builder()
	free := mustPlan(t, cat, "free")
	builder := mustPlan(t, cat, "builder")
	enterprise := mustPlan(t, cat, "enterprise")

	tests := []struct {
		name  string
		plan  catalog.Plan
		owned AddOnSet
		id    catalog.AddOnID
		want  error
	}{
		{"free buys coder", free, NewAddOnSet(), catalog.AddOnCoder, nil},
		{"free owns coder", free, NewAddOnSet(catalog.AddOnCoder), catalog.AddOnCoder, ErrAlreadyOwned},
		{"builder buys database", builder, NewAddOnSet(), catalog.AddOnDatabase, nil},
		{"builder blocks coder", builder, NewAddOnSet(), catalog.AddOnCoder, ErrPlanIncludesFeature},
		{"implication checked before ownership", builder, NewAddOnSet(catalog.AddOnCoder), catalog.AddOnCoder, ErrPlanIncludesFeature},
		{"enterprise blocks everything", enterprise, NewAddOnSet(), catalog.AddOnDatabase, ErrPlanIncludesFeature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAddOnPurchase(tt.plan, tt.owned, tt.id)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckCredits(t *testing.T) {
	cat := catalog.Builder()
	imagePack, err := cat.Pack(catalog.PoolImage)
	require.NoError(t, err)

	assert.NoError(t, CheckCreditQuantity(imagePack, 10))
	for _, q := range []int{0, 1, 5, 11, 20, -10} {
		assert.ErrorIs(t, CheckCreditQuantity(imagePack, q), ErrInvalidInput, "quantity %d", q)
	}

	enterprise := mustPlan(t, cat, "enterprise")
	assert.ErrorIs(t, CheckCreditPlan(enterprise, catalog.PoolDocument), ErrPlanIncludesFeature)
	assert.NoError(t, CheckCreditPlan(enterprise, catalog.PoolImage))
	assert.NoError(t, CheckCreditPlan(mustPlan(t, cat, "builder"), catalog.PoolDocument))
}

func TestApplyPlan(t *testing.T) {
	cat := catalog.Builder()
	now := date(2025, time.January, 31)

	rec := &BillingRecord{PaymentStatus: PaymentStatusActive}
	require.NoError(t, applyPlan(rec, mustPlan(t, cat, "enterprise"), catalog.CycleAnnual, now))

	assert.Equal(t, catalog.PlanID("enterprise"), rec.SelectedPlan)
	assert.Equal(t, "12", rec.PlanPrice.String())
	assert.Equal(t, now, rec.SubscriptionStartDate)
	assert.Equal(t, date(2026, time.January, 31), *rec.NextBillingDate)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, PaymentStatusPending, rec.PaymentStatus)
}

func TestPlanOf_UnknownPlan(t *testing.T) {
	plan := planOf(catalog.Builder(), "pro")
	assert.Equal(t, catalog.PlanID("pro"), plan.ID)
	assert.False(t, plan.IncludesAllAddOns)
	assert.Empty(t, plan.Includes)
}
