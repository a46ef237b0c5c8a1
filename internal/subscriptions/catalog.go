// Package subscriptions holds the borrower plan catalog and plan history.
package subscriptions

import "strings"

// Feature names checked by gated endpoints.
const (
	FeatureBasicDashboard = "basic dashboard"
	FeatureAIAssistant    = "ai assistant"
	FeatureMessaging      = "messaging"
	FeatureCRM            = "crm"
	FeatureAll            = "all features"
	FeatureWhiteLabel     = "white label"
)

// Plan names.
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Plan is a catalog entry.
type Plan struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features"`
}

var catalog = []Plan{
	{Name: PlanStarter, Price: 0, Features: []string{FeatureBasicDashboard}},
	{Name: PlanPro, Price: 49, Features: []string{FeatureAIAssistant, FeatureMessaging, FeatureCRM}},
	{Name: PlanEnterprise, Price: 99, Features: []string{FeatureAll, FeatureWhiteLabel}},
}

// Catalog returns a copy of the plan catalog ordered by price.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// Lookup finds a plan by case-insensitive name.
func Lookup(name string) (Plan, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range catalog {
		if p.Name == name {
			p.Features = append([]string(nil), p.Features...)
			return p, true
		}
	}
	return Plan{}, false
}

// HasFeature reports whether plan grants feature. "all features" grants everything.
func HasFeature(plan, feature string) bool {
	p, ok := Lookup(plan)
	if !ok {
		return false
	}
	feature = strings.ToLower(strings.TrimSpace(feature))
	for _, f := range p.Features {
		if f == FeatureAll || f == feature {
			return true
		}
	}
	return false
}
