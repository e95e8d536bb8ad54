package meter

import (
	"time"

	"proai/internal/domain"
)

// ResetDue reports whether the profile's daily quotas belong to an earlier
// calendar day. The comparison is on local calendar days, not a rolling
// 24h window, and is cheap enough to run at every session activation
// point; once ResetDaily has stamped today it returns false for the rest
// of the day.
func ResetDue(p domain.ResourceProfile, now time.Time) bool {
	return p.LastReset != now.Format(time.DateOnly)
}
