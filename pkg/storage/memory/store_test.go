package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/projects"
)

func TestStore_MutateRequiresRecord(t *testing.T) {
	s := New()
	u := s.AddUser(billing.User{Email: "a@example.com"})
	ctx := context.Background()

	_, err := s.Mutate(ctx, 99, billing.MutateOptions{Create: true}, nil)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	_, err = s.Mutate(ctx, u.ID, billing.MutateOptions{}, func(*billing.BillingRecord) (*billing.BillingRecord, error) {
		t.Fatal("closure must not run without a record")
		return nil, nil
	})
	assert.ErrorIs(t, err, billing.ErrNoBillingRecord)
}

func TestStore_MutateVersionsAndIsolation(t *testing.T) {
	s := New()
	u := s.AddUser(billing.User{Email: "a@example.com"})
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := s.Mutate(ctx, u.ID, billing.MutateOptions{Create: true}, func(current *billing.BillingRecord) (*billing.BillingRecord, error) {
		assert.Nil(t, current)
		return &billing.BillingRecord{SelectedPlan: "free", CreatedAt: created, AddOns: billing.NewAddOnSet()}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, u.ID, first.UserID)

	first.AddOns = first.AddOns.With(catalog.AddOnCoder)
	first.ImageCredits = 1000

	second, err := s.Mutate(ctx, u.ID, billing.MutateOptions{}, func(current *billing.BillingRecord) (*billing.BillingRecord, error) {
		assert.Zero(t, current.AddOns.Len(), "returned records do not alias storage")
		current.ImageCredits = 10
		current.CreatedAt = time.Now()
		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, created, second.CreatedAt)
	assert.Equal(t, 10, second.ImageCredits)
}

func TestStore_MutateErrorLeavesRecord(t *testing.T) {
	s := New()
	u := s.AddUser(billing.User{Email: "a@example.com"})
	ctx := context.Background()

	_, err := s.Mutate(ctx, u.ID, billing.MutateOptions{Create: true}, func(*billing.BillingRecord) (*billing.BillingRecord, error) {
		return &billing.BillingRecord{SelectedPlan: "free"}, nil
	})
	require.NoError(t, err)

	boom := errors.New("rule failed")
	_, err = s.Mutate(ctx, u.ID, billing.MutateOptions{}, func(current *billing.BillingRecord) (*billing.BillingRecord, error) {
		current.SelectedPlan = "enterprise"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	profile, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.PlanID("free"), profile.Billing.SelectedPlan)
	assert.Equal(t, int64(1), profile.Billing.Version)
}

func TestStore_MutateCancelledContext(t *testing.T) {
	s := New()
	u := s.AddUser(billing.User{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Mutate(ctx, u.ID, billing.MutateOptions{Create: true}, nil)
	assert.ErrorIs(t, err, billing.ErrUnavailable)
}

func TestStore_CountByPlan(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, plan := range []catalog.PlanID{"free", "builder", "free"} {
		u := s.AddUser(billing.User{})
		_, err := s.Mutate(ctx, u.ID, billing.MutateOptions{Create: true}, func(*billing.BillingRecord) (*billing.BillingRecord, error) {
			return &billing.BillingRecord{SelectedPlan: plan}, nil
		})
		require.NoError(t, err)
	}
	s.AddUser(billing.User{})

	counts, err := s.CountByPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[catalog.PlanID]int64{"free": 2, "builder": 1}, counts)
}

func TestStore_Projects(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := s.AddUser(billing.User{Email: "alice@example.com"})
	bob := s.AddUser(billing.User{Email: "bob@example.com"})
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	older, err := s.Create(ctx, &projects.Project{UserID: alice.ID, Name: "Older", CreatedAt: base})
	require.NoError(t, err)
	newer, err := s.Create(ctx, &projects.Project{UserID: alice.ID, Name: "Newer", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = s.Create(ctx, &projects.Project{UserID: bob.ID, Name: "older"})
	require.NoError(t, err, "names are unique per user only")

	list, err := s.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = s.Get(ctx, bob.ID, older.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	_, err = s.Update(ctx, alice.ID, newer.ID, "OLDER", "rename clash", base)
	assert.ErrorIs(t, err, billing.ErrConflict)
	_, err = s.Update(ctx, alice.ID, newer.ID, "Newer", "same name is fine", base)
	assert.NoError(t, err)
}

func TestStore_DeleteAccountCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := s.AddUser(billing.User{})
	other := s.AddUser(billing.User{})

	_, err := s.Mutate(ctx, u.ID, billing.MutateOptions{Create: true}, func(*billing.BillingRecord) (*billing.BillingRecord, error) {
		return &billing.BillingRecord{SelectedPlan: "free"}, nil
	})
	require.NoError(t, err)
	p, err := s.Create(ctx, &projects.Project{UserID: u.ID, Name: "Gone"})
	require.NoError(t, err)
	kept, err := s.Create(ctx, &projects.Project{UserID: other.ID, Name: "Kept"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, u.ID))

	_, err = s.GetProfile(ctx, u.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	_, err = s.Get(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	_, err = s.Get(ctx, other.ID, kept.ID)
	assert.NoError(t, err)
}

func TestStore_MutateChecksProjectOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := s.AddUser(billing.User{})
	bob := s.AddUser(billing.User{})

	_, err := s.Mutate(ctx, alice.ID, billing.MutateOptions{Create: true}, func(*billing.BillingRecord) (*billing.BillingRecord, error) {
		return &billing.BillingRecord{SelectedPlan: "free"}, nil
	})
	require.NoError(t, err)
	mine, err := s.Create(ctx, &projects.Project{UserID: alice.ID, Name: "Mine"})
	require.NoError(t, err)
	theirs, err := s.Create(ctx, &projects.Project{UserID: bob.ID, Name: "Theirs"})
	require.NoError(t, err)

	called := false
	touch := func(current *billing.BillingRecord) (*billing.BillingRecord, error) {
		called = true
		return current, nil
	}

	_, err = s.Mutate(ctx, alice.ID, billing.MutateOptions{ProjectID: &theirs.ID}, touch)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	assert.False(t, called, "fn must not run for a foreign project")

	require.NoError(t, s.Delete(ctx, alice.ID, mine.ID))
	_, err = s.Mutate(ctx, alice.ID, billing.MutateOptions{ProjectID: &mine.ID}, touch)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	assert.False(t, called)

	again, err := s.Create(ctx, &projects.Project{UserID: alice.ID, Name: "Again"})
	require.NoError(t, err)
	rec, err := s.Mutate(ctx, alice.ID, billing.MutateOptions{ProjectID: &again.ID}, touch)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, int64(2), rec.Version)
}
