package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/httputil"
	"github.com/platinummonkey/launchpad/pkg/middleware"
)

// BillingHandlers handles billing-related HTTP requests
type BillingHandlers struct {
	billingService BillingService
}

// NewBillingHandlers creates a new BillingHandlers
func NewBillingHandlers(billingService BillingService) *BillingHandlers {
	return &BillingHandlers{
		billingService: billingService,
	}
}

// RegisterPublicRoutes registers routes that need no token
func (h *BillingHandlers) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/billing/plans", h.ListPlans).Methods(http.MethodGet)
}

// RegisterRoutes registers the caller-scoped billing routes on the /api/user subrouter
func (h *BillingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/pricing-onboarding", h.ApplyOnboarding).Methods(http.MethodPost)
	router.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet)
	router.HandleFunc("/profile", h.DeleteAccount).Methods(http.MethodDelete)

	router.HandleFunc("/billing/plan", h.ChangePlan).Methods(http.MethodPut)
	router.HandleFunc("/billing/cancel", h.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/billing/add-ons", h.PurchaseAddon).Methods(http.MethodPost)
	router.HandleFunc("/billing/credits", h.PurchaseCredits).Methods(http.MethodPost)
}

// ListPlans returns every plan with both cycle prices, the add-ons and the credit packs
func (h *BillingHandlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	cat := h.billingService.Catalog()
	quotes, err := cat.Quotes()
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, PlansResponse{
		Catalog:     cat.Name,
		Plans:       quotes,
		AddOns:      cat.AddOns,
		CreditPacks: cat.Packs,
	})
}

// ApplyOnboarding creates or replaces the caller's subscription
func (h *BillingHandlers) ApplyOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req billing.OnboardingRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rec, err := h.billingService.ApplyOnboarding(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, BillingResponse{
		Success: true,
		Message: "Pricing onboarding completed successfully",
		Billing: rec,
	})
}

// GetProfile returns the caller's user fields and billing record
func (h *BillingHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.billingService.GetBillingForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, ProfileResponse{Success: true, User: profile})
}

// DeleteAccount removes the caller with their billing record and projects
func (h *BillingHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.billingService.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, MessageResponse{Success: true, Message: "Account deleted successfully"})
}

// ChangePlan moves the caller to another plan or billing cycle
func (h *BillingHandlers) ChangePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChangePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rec, err := h.billingService.ChangePlan(r.Context(), userID, req.Plan, req.Cycle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, BillingResponse{Success: true, Message: "Plan updated successfully", Billing: rec})
}

// Cancel returns the caller to the free plan
func (h *BillingHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rec, err := h.billingService.Cancel(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, BillingResponse{Success: true, Message: "Subscription cancelled", Billing: rec})
}

// PurchaseAddon adds an add-on to the caller's subscription
func (h *BillingHandlers) PurchaseAddon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddOnRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rec, err := h.billingService.PurchaseAddon(r.Context(), userID, req.AddOn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, BillingResponse{Success: true, Message: "Add-on purchased successfully", Billing: rec})
}

// PurchaseCredits buys one credit pack for the caller
func (h *BillingHandlers) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req billing.CreditPurchase
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	receipt, err := h.billingService.PurchaseCredits(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, CreditsResponse{Success: true, Message: "Credits purchased successfully", Receipt: receipt})
}

// requireUser returns the authenticated caller. The auth gateway guarantees it for /api/user
// routes, so a miss means the router was assembled without it.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return 0, false
	}
	return userID, true
}
