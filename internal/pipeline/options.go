package pipeline

import (
	"errors"
	"fmt"
	"time"

	"nhkeasy/internal/normalizer"
)

// DateLayout is the format of catalog date keys and range bounds.
const DateLayout = "2006-01-02"

// Invocation errors.
var (
	ErrInvalidRange    = errors.New("invalid date range")
	ErrNoDatesInRange  = errors.New("no catalog dates in requested range")
	ErrStoreRequired   = errors.New("a store is required unless running dry")
	ErrRangeConflict   = fmt.Errorf("%w: use either start/end dates or days back", ErrInvalidRange)
	ErrRangeIncomplete = fmt.Errorf("%w: both start and end dates are required", ErrInvalidRange)
)

// Options selects what one run ingests.
type Options struct {
	// Start and End are inclusive YYYY-MM-DD bounds.
	Start string
	End   string
	// DaysBack, when positive, sets End to today in source-local time and
	// Start to End minus DaysBack days.
	DaysBack int
	DryRun   bool
	// Now overrides the clock for DaysBack. Zero means time.Now.
	Now time.Time
}

// Range resolves the inclusive date bounds of the run.
func (o Options) Range() (string, string, error) {
	explicit := o.Start != "" || o.End != ""

	switch {
	case o.DaysBack < 0:
		return "", "", fmt.Errorf("%w: days back must not be negative", ErrInvalidRange)
	case o.DaysBack > 0 && explicit:
		return "", "", ErrRangeConflict
	case o.DaysBack > 0:
		now := o.Now
		if now.IsZero() {
			now = time.Now()
		}

		end := now.In(normalizer.SourceLocation)
		start := end.AddDate(0, 0, -o.DaysBack)

		return start.Format(DateLayout), end.Format(DateLayout), nil
	case o.Start == "" || o.End == "":
		return "", "", ErrRangeIncomplete
	}

	start, err := time.Parse(DateLayout, o.Start)
	if err != nil {
		return "", "", fmt.Errorf("%w: start date %q", ErrInvalidRange, o.Start)
	}

	end, err := time.Parse(DateLayout, o.End)
	if err != nil {
		return "", "", fmt.Errorf("%w: end date %q", ErrInvalidRange, o.End)
	}

	if end.Before(start) {
		return "", "", fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRange, o.End, o.Start)
	}

	return o.Start, o.End, nil
}
