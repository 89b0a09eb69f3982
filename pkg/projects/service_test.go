package projects_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/projects"
	"github.com/platinummonkey/launchpad/pkg/storage/memory"
)

func validRequest(name string) projects.CreateRequest {
	return projects.CreateRequest{
		Name:           name,
		Industry:       "saas",
		TeamSize:       "solo",
		Objective:      "mvp",
		Timeline:       "1-3",
		BudgetRange:    "0-5k",
		TechnicalLevel: "some",
		TechStack:      "react-node",
	}
}

func newService(t *testing.T) (*projects.Service, *billing.Manager, int64) {
	t.Helper()
	store := memory.New()
	user := store.AddUser(billing.User{Email: "founder@example.com"})
	source := catalog.NewStatic(catalog.Builder())
	return projects.NewService(store, store, source, nil, nil), billing.NewManager(store, source), user.ID
}

func TestService_CreateDocumentQuota(t *testing.T) {
	tests := []struct {
		name string
		plan string
		want int
	}{
		{"no billing record", "", 3},
		{"free", "free", 3},
		{"builder", "builder", 10},
		{"enterprise", "enterprise", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, manager, userID := newService(t)
			ctx := context.Background()
			if tt.plan != "" {
				_, err := manager.ApplyOnboarding(ctx, userID, billing.OnboardingRequest{Plan: tt.plan, Cycle: "monthly"})
				require.NoError(t, err)
			}

			p, err := svc.Create(ctx, userID, validRequest("Acme"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.BaseDocuments)
			assert.Zero(t, p.UsedDocuments)
			assert.Equal(t, projects.StatusActive, p.Status)
		})
	}
}

func TestService_CreateTrimsInput(t *testing.T) {
	svc, _, userID := newService(t)
	req := validRequest("  Acme  ")
	blank := "   "
	req.Description = &blank

	p, err := svc.Create(context.Background(), userID, req)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)
	assert.Nil(t, p.Description)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _, userID := newService(t)
	long := strings.Repeat("x", 501)

	cases := map[string]func(*projects.CreateRequest){
		"empty name":       func(r *projects.CreateRequest) { r.Name = "  " },
		"unknown industry": func(r *projects.CreateRequest) { r.Industry = "mining" },
		"missing timeline": func(r *projects.CreateRequest) { r.Timeline = "" },
		"long description": func(r *projects.CreateRequest) { r.Description = &long },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest("Acme")
			mutate(&req)
			_, err := svc.Create(context.Background(), userID, req)
			assert.ErrorIs(t, err, billing.ErrInvalidInput)
		})
	}
}

func TestService_DuplicateNameConflicts(t *testing.T) {
	svc, _, userID := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, validRequest("Acme"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, validRequest("acme"))
	assert.ErrorIs(t, err, billing.ErrConflict)
}

func TestService_UnknownUser(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), 404, validRequest("Acme"))
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc, _, userID := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, userID, validRequest("Acme"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, p.ID, projects.UpdateRequest{Name: "A", Description: "too short a name"})
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	updated, err := svc.Update(ctx, userID, p.ID, projects.UpdateRequest{Name: "Acme Rockets", Description: "Reusable boosters"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Rockets", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Reusable boosters", *updated.Description)

	_, err = svc.Update(ctx, userID+1, p.ID, projects.UpdateRequest{Name: "Stolen", Description: "nope"})
	assert.ErrorIs(t, err, billing.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, userID, p.ID))
	_, err = svc.Get(ctx, userID, p.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, userID, p.ID), billing.ErrNotFound)
}

func TestUpdateRequest_Validate(t *testing.T) {
	assert.NoError(t, projects.UpdateRequest{Name: "ok", Description: "d"}.Validate())
	assert.Error(t, projects.UpdateRequest{Name: "ok"}.Validate())
	assert.Error(t, projects.UpdateRequest{Name: strings.Repeat("n", 101), Description: "d"}.Validate())
	assert.Error(t, projects.UpdateRequest{Name: "ok", Description: strings.Repeat("d", 501)}.Validate())
}
