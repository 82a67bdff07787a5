package forecast

import (
	"fmt"
	"time"
)

// Horizon returns the number of months from the last observation through
// December of targetYear.
func Horizon(last time.Time, targetYear int) (int, error) {
	last = last.UTC()
	if targetYear <= last.Year() {
		return 0, fmt.Errorf("%w: target %d, last observation %s",
			ErrTargetYearNotFuture, targetYear, last.Format("2006-01"))
	}

	h := (targetYear-last.Year())*12 + (12 - int(last.Month()))
	if h < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidHorizon, h)
	}
	return h, nil
}
