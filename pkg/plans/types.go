package plans

// Interval represents the billing interval of a plan
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Feature represents a single entitlement line of a plan
type Feature struct {
	Name     string `json:"name"`
	Included bool   `json:"included"`
	Limit    string `json:"limit,omitempty"`
}

// PlanDefinition represents a purchasable plan. Definitions are immutable;
// the catalog hands out copies so callers cannot mutate shared state.
type PlanDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Interval    Interval  `json:"interval"`
	TrialDays   int       `json:"trial_days"`
	Features    []Feature `json:"features"`
	Featured    bool      `json:"featured"` // display only, no behavioral effect
}

// HasTrial reports whether starting this plan begins with a trial period.
func (p *PlanDefinition) HasTrial() bool {
	return p.TrialDays > 0
}

// Feature returns the named feature line, if the plan declares one.
func (p *PlanDefinition) Feature(name string) (Feature, bool) {
	for _, f := range p.Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Includes reports whether the plan includes the named feature.
func (p *PlanDefinition) Includes(name string) bool {
	f, ok := p.Feature(name)
	return ok && f.Included
}
