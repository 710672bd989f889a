package sqlxrepos

import (
	"database/sql/driver"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

// wrapErr classifies a repository error: a dead connection cannot be served
// through and becomes a shutdown error, anything else is wrapped with context.
func wrapErr(err error, msg string) error {
	if errors.Is(err, driver.ErrBadConn) {
		return core.NewShutdownError(err.Error())
	}
	return errors.Wrap(err, msg)
}
