// Package api provides the HTTP gateway for launchpad billing and projects.
//
// # Overview
//
// The server is built on gorilla/mux. The plan catalog is public; every other route lives under
// /api/user and requires a bearer token. The authenticated user id is taken from the token, so
// callers can only act on their own billing record and projects.
//
//	GET    /api/billing/plans
//	POST   /api/user/pricing-onboarding
//	GET    /api/user/profile
//	DELETE /api/user/profile
//	PUT    /api/user/billing/plan
//	POST   /api/user/billing/cancel
//	POST   /api/user/billing/add-ons
//	POST   /api/user/billing/credits
//	POST   /api/user/create-project
//	GET    /api/user/projects
//	GET    /api/user/projects/{projectId}
//	PUT    /api/user/projects/{projectId}
//	DELETE /api/user/projects/{projectId}
//
// # Errors
//
// Domain failures carry a billing.Kind which selects the status code:
//
//	not_found, no_billing_record                                 404
//	invalid_input                                                400
//	invalid_state, already_owned, plan_includes_feature, conflict 409
//	unavailable                                                  503
//
// Error bodies are {"error": "...", "kind": "..."}. Unclassified errors are logged and reported
// as a generic 500 so storage details never reach the client.
//
// # Usage
//
//	server, err := api.NewServer(api.Config{
//	    Billing:  manager,
//	    Projects: projectService,
//	    Auth:     tokens,
//	    Limiter:  middleware.NewRateLimiter(nil),
//	    Metrics:  metrics,
//	    Logger:   logger,
//	})
//	http.ListenAndServe(":8080", server)
package api
