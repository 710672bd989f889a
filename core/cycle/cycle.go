package cycle

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

var (
	ErrInvalid = errors.New("invalid cycle, expected 01/YY or 02/YY")

	shortRegex = regexp.MustCompile(`^(01|02)/\d{2}$`)
	longRegex  = regexp.MustCompile(`^(01|02)/20\d{2}$`)
	digitRegex = regexp.MustCompile(`\D`)
)

// Cycle is an academic term token in the normalized short form "01/YY" or "02/YY".
// The zero value means "unset"; an invalid token never becomes a Cycle.
type Cycle string

func (c Cycle) String() string { return string(c) }

func (c Cycle) IsZero() bool { return c == "" }

// Parse normalizes and validates a cycle token. It accepts the short form
// ("01/25") and the long form ("01/2025"), always returning the short form.
func Parse(s string) (Cycle, error) {
	s = core.CleanString(s)
	if shortRegex.MatchString(s) {
		return Cycle(s), nil
	}
	if longRegex.MatchString(s) {
		return Cycle(s[:3] + s[5:]), nil
	}
	return "", core.NewValidationError(ErrInvalid, core.FieldError{Field: "ciclo", Error: ErrInvalid.Error()})
}

// FormatPartial applies the progressive input mask to free-typed text:
// "0" -> "0", "0125" -> "01/25". It never rejects; it only shapes.
func FormatPartial(raw string) string {
	digits := digitRegex.ReplaceAllString(raw, "")
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// IsComplete reports whether free-typed text already forms a full valid token.
func IsComplete(raw string) bool {
	return shortRegex.MatchString(strings.TrimSpace(raw))
}
