package domain

import "time"

// Plan is a purchasable premium period.
type Plan struct {
	Name     string
	Days     int
	Amount   string // RUB, two decimals
	Describe string
}

// Duration is the entitlement length granted by the plan.
func (p Plan) Duration() time.Duration { return time.Duration(p.Days) * 24 * time.Hour }

var plans = map[string]Plan{
	"day":   {Name: "day", Days: 1, Amount: "10.00", Describe: "Premium for 1 day"},
	"week":  {Name: "week", Days: 7, Amount: "50.00", Describe: "Premium for 7 days"},
	"month": {Name: "month", Days: 30, Amount: "150.00", Describe: "Premium for 30 days"},
	"year":  {Name: "year", Days: 365, Amount: "1500.00", Describe: "Premium for 365 days"},
}

// LookupPlan returns a known plan.
func LookupPlan(name string) (Plan, bool) {
	p, ok := plans[name]
	return p, ok
}

// PlanOrDefault resolves a webhook plan name; unknown names get the month term.
func PlanOrDefault(name string) Plan {
	if p, ok := plans[name]; ok {
		return p
	}
	p := plans["month"]
	p.Name = name
	return p
}

// PlanNames lists plans from shortest to longest.
func PlanNames() []string { return []string{"day", "week", "month", "year"} }
