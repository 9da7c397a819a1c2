// Package trend turns irregular commit snapshots into regular time series:
// per-language line counts and cumulative per-author contribution, resampled
// to a daily, weekly or monthly axis with forward-fill.
package trend

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownInterval indicates an interval name outside daily/weekly/monthly.
var ErrUnknownInterval = errors.New("unknown interval")

// Interval is the resampling granularity.
type Interval string

// Supported intervals.
const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
)

// ParseInterval parses a user-supplied interval name, case-insensitively.
func ParseInterval(name string) (Interval, error) {
	switch Interval(strings.ToLower(strings.TrimSpace(name))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInterval, name)
	}
}

// BucketStart returns the start of the bucket containing at. Buckets are
// aligned in UTC: days at midnight, weeks on Monday, months on the 1st.
func (iv Interval) BucketStart(at time.Time) time.Time {
	at = at.UTC()

	switch iv {
	case Weekly:
		offset := (int(at.Weekday()) + 6) % 7

		return time.Date(at.Year(), at.Month(), at.Day()-offset, 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket after the one starting at bucket.
func (iv Interval) Next(bucket time.Time) time.Time {
	switch iv {
	case Weekly:
		return bucket.AddDate(0, 0, 7)
	case Monthly:
		return bucket.AddDate(0, 1, 0)
	default:
		return bucket.AddDate(0, 0, 1)
	}
}

// Step approximates one interval as a duration. It is used to thin commit
// selection, not to align buckets, so calendar drift does not matter here.
func (iv Interval) Step() time.Duration {
	switch iv {
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Label formats a bucket start for table and CSV output.
func (iv Interval) Label(bucket time.Time) string {
	return bucket.Format("2006-01-02")
}
