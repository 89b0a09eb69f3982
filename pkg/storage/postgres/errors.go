package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/platinummonkey/launchpad/pkg/billing"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	classConnection         = "08"
)

// classify converts a database error into a *billing.Error where the failure has a domain
// meaning. Errors already classified pass through; anything else is wrapped with message.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var domainErr *billing.Error
	if errors.As(err, &domainErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeUniqueViolation:
			return billing.WrapError(billing.KindConflict, err, message)
		case pqErr.Code == codeForeignKeyViolation:
			return billing.WrapError(billing.KindNotFound, err, message)
		case pqErr.Code == codeSerialization, pqErr.Code == codeDeadlock:
			return billing.WrapError(billing.KindConflict, err, message)
		case pqErr.Code.Class() == classConnection:
			return billing.WrapError(billing.KindUnavailable, err, message)
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return billing.WrapError(billing.KindUnavailable, err, message)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return billing.WrapError(billing.KindUnavailable, err, message)
	}

	return fmt.Errorf("%s: %w", message, err)
}
