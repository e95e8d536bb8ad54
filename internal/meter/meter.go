// Package meter holds the pure state transitions over a ResourceProfile.
// Every function returns a fresh profile; callers replace the old one
// atomically and persist it themselves.
package meter

import (
	"time"

	"proai/internal/domain"
)

// NewProfile builds the profile a free account starts with: the free daily
// allowance and a zero-filled usage counter for every capped category.
func NewProfile(categories []domain.Category, now time.Time) domain.ResourceProfile {
	return domain.ResourceProfile{
		Credits:   domain.FreeDailyCredits,
		Premium:   false,
		Usage:     FreshUsage(categories),
		LastReset: now.Format(time.DateOnly),
	}
}

// FreshUsage zero-fills attempt counters for every category carrying a
// daily limit. Uncapped categories get no entry; they are not attemptable
// on the free tier in the first place.
func FreshUsage(categories []domain.Category) map[string]int {
	usage := make(map[string]int)
	for _, cat := range categories {
		if cat.HasDailyLimit() {
			usage[cat.ID] = 0
		}
	}
	return usage
}

// Consume debits one generation attempt. On a nil error the returned
// profile has the cost deducted (and, on the free tier, the category's
// usage counter incremented). On a gate failure the input profile is
// returned untouched together with the reason: insufficient credits is
// checked before the daily limit, so it wins when both gates fail.
func Consume(p domain.ResourceProfile, cat domain.Category) (domain.ResourceProfile, error) {
	if p.Credits < cat.CreditCost {
		return p, domain.ErrInsufficientCredits
	}
	if p.Premium {
		out := p.Clone()
		out.Credits -= cat.CreditCost
		return out, nil
	}
	// Free tier: a category without a daily limit is never attemptable
	// here, it is gated as premium at selection time.
	if !cat.HasDailyLimit() || p.UsedToday(cat.ID) >= *cat.DailyLimit {
		return p, domain.ErrDailyLimitReached
	}
	out := p.Clone()
	out.Credits -= cat.CreditCost
	out.Usage[cat.ID] = p.UsedToday(cat.ID) + 1
	return out, nil
}

// Refund undoes a prior successful Consume. Credits always come back; the
// free-tier usage counter is decremented but floored at zero so a stray
// double refund can never drive it negative. The meter keeps no ledger:
// invoking Refund only after a known successful Consume is the caller's
// contract.
func Refund(p domain.ResourceProfile, cat domain.Category) domain.ResourceProfile {
	out := p.Clone()
	out.Credits += cat.CreditCost
	if !out.Premium {
		if used := out.Usage[cat.ID]; used > 0 {
			out.Usage[cat.ID] = used - 1
		}
	}
	return out
}

// ResetDaily restores the daily allowance of the profile's tier and
// zeroes the usage counters. Applying it twice on the same day is a fixed
// point.
func ResetDaily(p domain.ResourceProfile, categories []domain.Category, now time.Time) domain.ResourceProfile {
	out := p.Clone()
	if p.Premium {
		out.Credits = domain.PremiumDailyCredits
		out.Usage = make(map[string]int)
	} else {
		out.Credits = domain.FreeDailyCredits
		out.Usage = FreshUsage(categories)
	}
	out.LastReset = now.Format(time.DateOnly)
	return out
}

// Upgrade switches the profile to the premium tier. There is no downgrade
// transition.
func Upgrade(p domain.ResourceProfile) domain.ResourceProfile {
	out := p.Clone()
	out.Premium = true
	out.Credits = domain.PremiumDailyCredits
	out.Usage = make(map[string]int)
	return out
}

// AddCredits grants a one-time top-up. A non-positive amount is a caller
// bug and fails loudly instead of clamping.
func AddCredits(p domain.ResourceProfile, amount int) (domain.ResourceProfile, error) {
	if amount <= 0 {
		return p, domain.ErrInvalidAmount
	}
	out := p.Clone()
	out.Credits += amount
	return out, nil
}
