package domain

// Daily credit allowances per tier. A reset restores the profile to the
// allowance of its current tier.
const (
	FreeDailyCredits    = 100
	PremiumDailyCredits = 1000
)

// ResourceProfile is the per-account credit and quota state. It is pure
// data: every change goes through a meter transition that replaces the
// whole profile, never a partial field update.
type ResourceProfile struct {
	Credits   int            `json:"credits"`
	Premium   bool           `json:"is_premium"`
	Usage     map[string]int `json:"usage"`
	LastReset string         `json:"last_reset_date"` // calendar day, time.DateOnly
}

// UsedToday returns the attempts consumed today for the category, zero if
// the category has no usage entry.
func (p ResourceProfile) UsedToday(categoryID string) int {
	return p.Usage[categoryID]
}

// Clone returns a deep copy so transitions never alias the usage map of
// the profile they started from.
func (p ResourceProfile) Clone() ResourceProfile {
	out := p
	out.Usage = make(map[string]int, len(p.Usage))
	for id, n := range p.Usage {
		out.Usage[id] = n
	}
	return out
}
