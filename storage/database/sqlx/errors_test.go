package sqlxrepos

import (
	"database/sql/driver"
	"io"
	"testing"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

func TestWrapErrClassification(t *testing.T) {
	if err := wrapErr(driver.ErrBadConn, "getting ponderation"); !core.IsShutdown(err) {
		t.Errorf("wrapErr(ErrBadConn) = %v, want a shutdown error", err)
	}
	if err := wrapErr(io.EOF, "getting ponderation"); core.IsShutdown(err) {
		t.Errorf("wrapErr(EOF) = %v, must not be a shutdown error", err)
	}
	if err := wrapErr(nil, "saving ponderation"); err != nil {
		t.Errorf("wrapErr(nil) = %v, want nil", err)
	}
}
