package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// meter consumes one use of f. The caller turns a refusal into a limit
// intent. Premium uses leave the record untouched.
func (m *Machine) meter(u *domain.User, f domain.Feature) (allowed, changed bool) {
	counted := !m.gate.IsPremiumActive(u)
	allowed, _ = m.gate.Consume(u, f)
	return allowed, allowed && counted
}

func (m *Machine) question(u *domain.User, text string) step {
	var st step
	text = strings.TrimSpace(text)
	if text == "" {
		st.say(domain.Intent{Kind: domain.IntentUnexpectedInput})
		return st
	}
	if c, ok := domain.MatchCulture(text); ok {
		return m.cropCalendar(u, c)
	}
	allowed, changed := m.meter(u, domain.FeatureQuestions)
	if !allowed {
		st.say(domain.Intent{Kind: domain.IntentLimitReached, Feature: domain.FeatureQuestions})
		return st
	}
	st.changed = changed
	region := u.Region
	st.after = func(ctx context.Context) []domain.Intent {
		return []domain.Intent{{
			Kind:    domain.IntentAnswer,
			Feature: domain.FeatureQuestions,
			Text:    m.advisor.Ask(ctx, region, text),
		}}
	}
	return st
}

// minCropAnswer is the shortest advisor answer accepted as a calendar.
const minCropAnswer = 80

// cropCalendar asks the advisor for lunar planting dates of one crop. It is
// metered as a question.
func (m *Machine) cropCalendar(u *domain.User, c domain.Culture) step {
	var st step
	allowed, changed := m.meter(u, domain.FeatureQuestions)
	if !allowed {
		st.say(domain.Intent{Kind: domain.IntentLimitReached, Feature: domain.FeatureQuestions})
		return st
	}
	st.changed = changed
	region := u.Region
	year := m.now().In(u.Location()).Year()
	st.after = func(ctx context.Context) []domain.Intent {
		answer := strings.TrimSpace(m.advisor.Ask(ctx, region, cropPrompt(c, region, year)))
		if len([]rune(answer)) < minCropAnswer || strings.Contains(strings.ToLower(answer), "не знаю") {
			answer = fmt.Sprintf("Exact dates for %s in %d depend on the variety and your region. Ask me with more detail!",
				c.Slug, year)
		}
		return []domain.Intent{{Kind: domain.IntentAnswer, Feature: domain.FeatureQuestions, Text: answer}}
	}
	return st
}

func cropPrompt(c domain.Culture, region string, year int) string {
	return fmt.Sprintf("You specialise in lunar sowing calendars for Russia and the CIS. User region: %s. Year: %d. "+
		"Give the most favourable days of the lunar sowing calendar for the crop '%s' in %d. "+
		"By month, list sowing for seedlings, pricking out and planting into a greenhouse or open ground. "+
		"List the forbidden days (new moon, full moon). "+
		"Format: **%s in %d**, one line per month, then the forbidden days and a short tip.",
		region, year, c.Name, year, c.Name, year)
}

func (m *Machine) diagnose(u *domain.User, photoURL string) step {
	var st step
	if photoURL == "" {
		st.say(domain.Intent{Kind: domain.IntentUnexpectedInput})
		return st
	}
	allowed, changed := m.meter(u, domain.FeaturePhotos)
	if !allowed {
		st.say(domain.Intent{Kind: domain.IntentLimitReached, Feature: domain.FeaturePhotos})
		return st
	}
	st.changed = changed
	region := u.Region
	st.after = func(ctx context.Context) []domain.Intent {
		return []domain.Intent{{
			Kind:    domain.IntentAnswer,
			Feature: domain.FeaturePhotos,
			Text:    m.diagnoser.Diagnose(ctx, photoURL, region),
		}}
	}
	return st
}

func (m *Machine) weather(u *domain.User) step {
	region := u.Region
	return step{after: func(ctx context.Context) []domain.Intent {
		return []domain.Intent{{Kind: domain.IntentAnswer, Text: m.forecaster.Forecast(ctx, region)}}
	}}
}

func (m *Machine) status(u *domain.User) step {
	in := domain.Intent{
		Kind:      domain.IntentStatus,
		Premium:   m.gate.IsPremiumActive(u),
		Remaining: m.gate.Remaining(u),
		TimeZone:  u.TimeZone,
		Text:      u.Region,
	}
	if in.Premium {
		in.At, _ = u.PremiumExpiry()
	}
	return step{intents: []domain.Intent{in}}
}

func (m *Machine) buyPremium(u *domain.User, name string) step {
	var st step
	plan, ok := domain.LookupPlan(name)
	if !ok || m.checkout == nil {
		st.say(domain.Intent{Kind: domain.IntentPaymentFailed, Plan: name})
		return st
	}
	userID := u.ID
	st.after = func(ctx context.Context) []domain.Intent {
		url, err := m.checkout.CreatePayment(ctx, userID, plan)
		if err != nil {
			m.log.Error("create payment failed",
				zap.String("user", userID), zap.String("plan", plan.Name), zap.Error(err))
			return []domain.Intent{{Kind: domain.IntentPaymentFailed, Plan: plan.Name}}
		}
		return []domain.Intent{{Kind: domain.IntentPaymentLink, Plan: plan.Name, Text: url}}
	}
	return st
}

func itoa(id int) string { return strconv.Itoa(id) }

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
