package api

import (
	"context"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/projects"
)

// BillingService is the subset of billing.Manager served over HTTP
type BillingService interface {
	Catalog() *catalog.Catalog
	ApplyOnboarding(ctx context.Context, userID int64, req billing.OnboardingRequest) (*billing.BillingRecord, error)
	GetBillingForUser(ctx context.Context, userID int64) (*billing.Profile, error)
	ChangePlan(ctx context.Context, userID int64, planID, cycle string) (*billing.BillingRecord, error)
	Cancel(ctx context.Context, userID int64) (*billing.BillingRecord, error)
	PurchaseAddon(ctx context.Context, userID int64, addOnID string) (*billing.BillingRecord, error)
	PurchaseCredits(ctx context.Context, userID int64, req billing.CreditPurchase) (*billing.CreditReceipt, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

// ProjectService is the subset of projects.Service served over HTTP
type ProjectService interface {
	Create(ctx context.Context, userID int64, req projects.CreateRequest) (*projects.Project, error)
	List(ctx context.Context, userID int64) ([]projects.Project, error)
	Get(ctx context.Context, userID, projectID int64) (*projects.Project, error)
	Update(ctx context.Context, userID, projectID int64, req projects.UpdateRequest) (*projects.Project, error)
	Delete(ctx context.Context, userID, projectID int64) error
}

// ChangePlanRequest is the body of PUT /api/user/billing/plan
type ChangePlanRequest struct {
	Plan  string `json:"selectedPlan"`
	Cycle string `json:"billingCycle"`
}

// AddOnRequest is the body of POST /api/user/billing/add-ons
type AddOnRequest struct {
	AddOn string `json:"addOn"`
}

// PlansResponse lists the catalog in effect
type PlansResponse struct {
	Catalog     string               `json:"catalog"`
	Plans       []catalog.Quote      `json:"plans"`
	AddOns      []catalog.AddOn      `json:"add_ons"`
	CreditPacks []catalog.CreditPack `json:"credit_packs"`
}

// BillingResponse wraps a billing record after a mutation
type BillingResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Billing *billing.BillingRecord `json:"billing"`
}

// ProfileResponse is the body of GET /api/user/profile. Billing is null until onboarding.
type ProfileResponse struct {
	Success bool             `json:"success"`
	User    *billing.Profile `json:"user"`
}

// CreditsResponse describes a completed credit purchase
type CreditsResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Receipt *billing.CreditReceipt `json:"receipt"`
}

// ProjectResponse wraps a single project
type ProjectResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Project *projects.Project `json:"project"`
}

// ProjectsResponse lists the caller's projects
type ProjectsResponse struct {
	Success  bool               `json:"success"`
	Projects []projects.Project `json:"projects"`
}

// MessageResponse acknowledges an operation with no payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
