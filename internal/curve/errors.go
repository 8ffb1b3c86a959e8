package curve

import "errors"

// Domain errors. All are caller-parameter failures: local, synchronous,
// non-retryable. They must surface to the caller rather than being swallowed
// or substituted with defaults, since a silently widened range or dropped
// tenor would corrupt the economic meaning of the displayed curve.
var (
	// Generation errors
	ErrInvalidRange    = errors.New("invalid date range: start after end")
	ErrInvalidMaturity = errors.New("maturity not in canonical set")

	// Query errors
	ErrEmptyRange      = errors.New("no dates in requested range")
	ErrMissingMaturity = errors.New("maturity not present in table")
	ErrMissingDate     = errors.New("date not present in table")
)
