package quota

import (
	"math"
	"time"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Unlimited is the remaining count reported under an active premium.
const Unlimited = math.MaxInt32

// Limits maps each metered feature to its free daily allowance.
// A feature without an entry is not metered.
type Limits map[domain.Feature]int

// Gate evaluates daily quotas and premium entitlements. Its methods mutate
// the passed user and must run under the store lock.
type Gate struct {
	limits Limits
	now    func() time.Time
}

// NewGate creates a gate. A nil clock means time.Now.
func NewGate(limits Limits, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{limits: limits, now: now}
}

// Today is the UTC calendar date used for daily resets.
func Today(t time.Time) string { return t.UTC().Format("2006-01-02") }

// EffectiveCount is the usage count for today: a counter last reset on
// another day counts as zero.
func EffectiveCount(u domain.FeatureUsage, today string) int {
	if u.LastReset != today {
		return 0
	}
	return u.Count
}

// IsPremiumActive is true only for a parseable expiry strictly in the future.
func (g *Gate) IsPremiumActive(u *domain.User) bool {
	if !u.Premium {
		return false
	}
	until, err := u.PremiumExpiry()
	if err != nil {
		return false
	}
	return until.After(g.now())
}

// CanUse reports whether f may be used now and how many uses remain after it.
func (g *Gate) CanUse(u *domain.User, f domain.Feature) (bool, int) {
	if g.IsPremiumActive(u) {
		return true, Unlimited
	}
	limit, ok := g.limits[f]
	if !ok {
		return true, Unlimited
	}
	count := EffectiveCount(u.Usage[f], Today(g.now()))
	if count >= limit {
		return false, 0
	}
	return true, limit - count - 1
}

// Use records one use of f. It reports whether the record changed.
func (g *Gate) Use(u *domain.User, f domain.Feature) bool {
	if g.IsPremiumActive(u) {
		return false
	}
	if _, ok := g.limits[f]; !ok {
		return false
	}
	today := Today(g.now())
	if u.Usage == nil {
		u.Usage = make(map[domain.Feature]domain.FeatureUsage)
	}
	u.Usage[f] = domain.FeatureUsage{
		LastReset: today,
		Count:     EffectiveCount(u.Usage[f], today) + 1,
	}
	return true
}

// Consume is CanUse followed by Use when allowed.
func (g *Gate) Consume(u *domain.User, f domain.Feature) (allowed bool, remaining int) {
	allowed, remaining = g.CanUse(u, f)
	if allowed {
		g.Use(u, f)
	}
	return allowed, remaining
}

// Remaining reports today's remaining allowance for every metered feature.
func (g *Gate) Remaining(u *domain.User) map[domain.Feature]int {
	out := make(map[domain.Feature]int, len(g.limits))
	premium := g.IsPremiumActive(u)
	today := Today(g.now())
	for f, limit := range g.limits {
		if premium {
			out[f] = Unlimited
			continue
		}
		left := limit - EffectiveCount(u.Usage[f], today)
		if left < 0 {
			left = 0
		}
		out[f] = left
	}
	return out
}

// Grant activates premium for the plan's duration starting now.
func (g *Gate) Grant(u *domain.User, p domain.Plan) time.Time {
	until := g.now().Add(p.Duration()).UTC()
	u.Premium = true
	u.PremiumUntil = until.Format(time.RFC3339)
	return until
}

// Expired reports whether the sweeper must demote u: premium is set but the
// expiry is not strictly in the future or cannot be parsed.
func (g *Gate) Expired(u *domain.User) bool {
	if !u.Premium {
		return false
	}
	until, err := u.PremiumExpiry()
	if err != nil {
		return true
	}
	return !until.After(g.now())
}

// Demote clears the entitlement.
func (g *Gate) Demote(u *domain.User) {
	u.Premium = false
	u.PremiumUntil = ""
}
