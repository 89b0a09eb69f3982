// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every error body has the same shape, {"error": "...", "kind": "..."}, so clients can branch on
// the kind without parsing messages:
//
//	httputil.WriteSuccess(w, profile)
//	httputil.WriteBadRequest(w, "quantity must be positive")
//	httputil.WriteError(w, http.StatusConflict, "already_owned", "add-on already owned")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
//
// LoggingMiddleware places the logger in the request context; handlers retrieve it with
// observability.FromContext, which adds request_id and user_id fields.
package httputil
