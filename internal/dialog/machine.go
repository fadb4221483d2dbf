// Package dialog drives the per-user conversation. Each Handle call is one
// user turn: the transition runs under the store lock, collaborator calls
// run after the lock is released.
package dialog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

// Deps are the machine's collaborators. Nil Advisor, Diagnoser and
// Forecaster answer with a "not configured" text; a nil Checkout refuses
// purchases.
type Deps struct {
	Store      *store.Store
	Gate       *quota.Gate
	Zones      ZoneResolver
	Advisor    Advisor
	Diagnoser  Diagnoser
	Forecaster Forecaster
	Checkout   Checkout
	Calendar   string
	Log        *zap.Logger
	Now        func() time.Time
}

// Machine is the dialog state machine.
type Machine struct {
	store      *store.Store
	gate       *quota.Gate
	zones      ZoneResolver
	advisor    Advisor
	diagnoser  Diagnoser
	forecaster Forecaster
	checkout   Checkout
	calendar   string
	log        *zap.Logger
	now        func() time.Time
}

// New creates a machine.
func New(d Deps) *Machine {
	m := &Machine{
		store:      d.Store,
		gate:       d.Gate,
		zones:      d.Zones,
		advisor:    d.Advisor,
		diagnoser:  d.Diagnoser,
		forecaster: d.Forecaster,
		checkout:   d.Checkout,
		calendar:   d.Calendar,
		log:        d.Log,
		now:        d.Now,
	}
	if m.advisor == nil {
		m.advisor = unavailable{}
	}
	if m.diagnoser == nil {
		m.diagnoser = unavailable{}
	}
	if m.forecaster == nil {
		m.forecaster = unavailable{}
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// step is the outcome of one locked transition.
type step struct {
	intents []domain.Intent
	changed bool
	// after runs once the store lock is released.
	after func(ctx context.Context) []domain.Intent
}

func (s *step) say(in domain.Intent) { s.intents = append(s.intents, in) }

// Handle processes one user turn and returns the intents to deliver.
func (m *Machine) Handle(ctx context.Context, in Input) []domain.Intent {
	if in.UserID == "" {
		return nil
	}
	var st step
	err := m.store.Update(in.UserID, func(u *domain.User) (bool, error) {
		from := u.State
		st = m.transition(u, in)
		if u.State != from {
			m.log.Debug("dialog transition",
				zap.String("user", u.ID),
				zap.Stringer("from", from),
				zap.Stringer("to", u.State),
			)
		}
		return st.changed, nil
	})
	if err != nil {
		m.log.Error("dialog update failed", zap.String("user", in.UserID), zap.Error(err))
	}
	for i := range st.intents {
		st.intents[i].UserID = in.UserID
	}
	if st.after != nil {
		for _, extra := range st.after(ctx) {
			extra.UserID = in.UserID
			st.intents = append(st.intents, extra)
		}
	}
	return st.intents
}

func (m *Machine) transition(u *domain.User, in Input) step {
	if in.Kind == InputAction {
		switch in.Action {
		case ActionStart:
			return m.start(u)
		case ActionCancel:
			return m.cancel(u)
		}
	}

	if u.State == domain.StateAwaitingRegion {
		return m.region(u, in)
	}
	if u.Region == "" {
		return step{intents: []domain.Intent{{Kind: domain.IntentStartRequired}}}
	}

	if u.State.InReminderDialog() {
		switch in.Kind {
		case InputText:
			return m.reminderText(u, in.Text)
		case InputPhoto:
			return step{intents: []domain.Intent{{Kind: domain.IntentUnexpectedInput}}}
		}
	}
	return m.idle(u, in)
}

func (m *Machine) start(u *domain.User) step {
	var st step
	if u.Region != "" {
		st.changed = u.State != domain.StateIdle
		u.Reset()
		st.say(domain.Intent{Kind: domain.IntentWelcomeBack, Text: u.Region, TimeZone: u.TimeZone})
		return st
	}
	u.Enter(domain.StateAwaitingRegion)
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentWelcome})
	return st
}

func (m *Machine) cancel(u *domain.User) step {
	var st step
	if u.State != domain.StateIdle {
		u.Reset()
		st.changed = true
	}
	st.say(domain.Intent{Kind: domain.IntentCancelled})
	return st
}

func (m *Machine) region(u *domain.User, in Input) step {
	var st step
	if in.Kind != InputText {
		st.say(domain.Intent{Kind: domain.IntentWelcome})
		return st
	}
	region, err := domain.ValidateRegion(in.Text)
	if err != nil {
		st.say(domain.Intent{Kind: domain.IntentRegionRejected})
		return st
	}
	zone, ok := "UTC", false
	if m.zones != nil {
		if z, found := m.zones.Resolve(region); found {
			zone, ok = z, true
		}
	}
	u.Region = region
	u.TimeZone = zone
	u.Reset()
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentRegionSaved, Text: region, TimeZone: zone, ZoneResolved: ok})
	return st
}

// idle handles actions and free input that do not continue a dialog step.
// Actions other than the reminder flows leave the dialog state untouched.
func (m *Machine) idle(u *domain.User, in Input) step {
	switch in.Kind {
	case InputText:
		return m.question(u, in.Text)
	case InputPhoto:
		return m.diagnose(u, in.PhotoURL)
	}

	switch in.Action {
	case ActionAddReminder:
		return m.addReminder(u)
	case ActionListReminders:
		return m.listReminders(u)
	case ActionChooseReminder:
		return m.chooseReminder(u, in.ReminderID)
	case ActionEditField:
		return m.editField(u, in.ReminderID, in.Field)
	case ActionDeleteReminder:
		return m.deleteReminder(u, in.ReminderID)
	case ActionWeather:
		return m.weather(u)
	case ActionCalendar:
		return step{intents: []domain.Intent{{Kind: domain.IntentCalendar, Text: m.calendar}}}
	case ActionCalendarCrop:
		c, ok := domain.LookupCulture(in.Culture)
		if !ok {
			return step{intents: []domain.Intent{{Kind: domain.IntentUnexpectedInput}}}
		}
		return m.cropCalendar(u, c)
	case ActionStatus:
		return m.status(u)
	case ActionBuyPremium:
		return m.buyPremium(u, in.Plan)
	}
	return step{intents: []domain.Intent{{Kind: domain.IntentUnexpectedInput}}}
}
