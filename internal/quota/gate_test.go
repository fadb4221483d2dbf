package quota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newGate(c *clock) *quota.Gate {
	return quota.NewGate(quota.Limits{
		domain.FeaturePhotos:    2,
		domain.FeatureReminders: 1,
		domain.FeatureQuestions: 5,
	}, c.now)
}

func TestCanUseThenUse_LimitTwo(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	g := newGate(c)
	u := domain.NewUser("42", c.t)

	var allowed []bool
	var remaining []int
	for i := 0; i < 3; i++ {
		ok, left := g.CanUse(u, domain.FeaturePhotos)
		allowed = append(allowed, ok)
		remaining = append(remaining, left)
		if ok {
			g.Use(u, domain.FeaturePhotos)
		}
	}
	assert.Equal(t, []bool{true, true, false}, allowed)
	assert.Equal(t, []int{1, 0, 0}, remaining)
}

func TestCanUse_LazyResetNextDay(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)}
	g := newGate(c)
	u := domain.NewUser("42", c.t)
	g.Use(u, domain.FeatureReminders)

	ok, _ := g.CanUse(u, domain.FeatureReminders)
	require.False(t, ok)

	c.t = c.t.Add(2 * time.Minute)
	ok, left := g.CanUse(u, domain.FeatureReminders)
	require.True(t, ok)
	assert.Equal(t, 0, left)
	// CanUse never rewrites the stored counter.
	assert.Equal(t, "2026-03-15", u.Usage[domain.FeatureReminders].LastReset)

	g.Use(u, domain.FeatureReminders)
	assert.Equal(t, domain.FeatureUsage{LastReset: "2026-03-16", Count: 1}, u.Usage[domain.FeatureReminders])
}

func TestEffectiveCount(t *testing.T) {
	assert.Equal(t, 0, quota.EffectiveCount(domain.FeatureUsage{LastReset: "2026-03-14", Count: 4}, "2026-03-15"))
	assert.Equal(t, 4, quota.EffectiveCount(domain.FeatureUsage{LastReset: "2026-03-15", Count: 4}, "2026-03-15"))
}

func TestPremiumBypassesQuota(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	g := newGate(c)
	u := domain.NewUser("42", c.t)
	plan, _ := domain.LookupPlan("week")
	until := g.Grant(u, plan)
	assert.True(t, until.Equal(c.t.Add(7*24*time.Hour)))

	for i := 0; i < 10; i++ {
		ok, left := g.Consume(u, domain.FeaturePhotos)
		require.True(t, ok)
		assert.Equal(t, quota.Unlimited, left)
	}
	assert.Empty(t, u.Usage)
}

func TestIsPremiumActive_FailClosed(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	g := newGate(c)

	cases := map[string]*domain.User{
		"flag off":    {Premium: false, PremiumUntil: c.t.Add(time.Hour).Format(time.RFC3339)},
		"missing":     {Premium: true},
		"corrupt":     {Premium: true, PremiumUntil: "soon"},
		"expired":     {Premium: true, PremiumUntil: c.t.Add(-time.Second).Format(time.RFC3339)},
		"exactly now": {Premium: true, PremiumUntil: c.t.Format(time.RFC3339)},
	}
	for name, u := range cases {
		assert.False(t, g.IsPremiumActive(u), name)
	}
	assert.True(t, g.IsPremiumActive(&domain.User{Premium: true, PremiumUntil: c.t.Add(time.Minute).Format(time.RFC3339)}))
}

func TestExpired(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	g := newGate(c)
	assert.True(t, g.Expired(&domain.User{Premium: true, PremiumUntil: "garbage"}))
	assert.True(t, g.Expired(&domain.User{Premium: true, PremiumUntil: c.t.Add(-time.Second).Format(time.RFC3339)}))
	assert.False(t, g.Expired(&domain.User{Premium: true, PremiumUntil: c.t.Add(time.Second).Format(time.RFC3339)}))
	assert.False(t, g.Expired(&domain.User{}))
}

func TestUnmeteredFeature(t *testing.T) {
	g := quota.NewGate(quota.Limits{}, nil)
	u := domain.NewUser("1", time.Now())
	ok, left := g.CanUse(u, domain.FeaturePhotos)
	assert.True(t, ok)
	assert.Equal(t, quota.Unlimited, left)
	assert.False(t, g.Use(u, domain.FeaturePhotos))
}
