package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/httputil"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

// StatusForKind maps a domain error kind to its HTTP status
func StatusForKind(kind billing.Kind) int {
	switch kind {
	case billing.KindNotFound, billing.KindNoBillingRecord:
		return http.StatusNotFound
	case billing.KindInvalidInput:
		return http.StatusBadRequest
	case billing.KindInvalidState, billing.KindAlreadyOwned, billing.KindPlanIncludesFeature, billing.KindConflict:
		return http.StatusConflict
	case billing.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error", "kind"}. Classified failures expose their message;
// anything else is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context()).WithError(err)

	kind := billing.KindOf(err)
	if kind == "" && errors.Is(err, context.Canceled) {
		// Client went away; nothing useful can be written.
		logger.Debug("Request cancelled")
		return
	}

	status := StatusForKind(kind)
	switch {
	case status >= http.StatusInternalServerError && kind == "":
		logger.Error("Unhandled error")
		httputil.WriteInternalError(w)
		return
	case status >= http.StatusInternalServerError:
		logger.WithField("kind", string(kind)).Warn("Dependency unavailable")
	}

	httputil.WriteError(w, status, string(kind), publicMessage(err))
}

// publicMessage returns the domain message. Wrapped causes are only shown for invalid input,
// where they name the offending value; elsewhere they may carry driver detail.
func publicMessage(err error) string {
	var domainErr *billing.Error
	if !errors.As(err, &domainErr) {
		return err.Error()
	}
	if domainErr.Kind == billing.KindInvalidInput || domainErr.Message == "" {
		return domainErr.Error()
	}
	return domainErr.Message
}
