package plans

// Feature names used across the portal. Route requirements and entitlement
// lookups reference these, so they live next to the catalog.
const (
	FeatureDocumentGeneration = "document_generation"
	FeatureContractAnalysis   = "contract_analysis"
	FeatureLegalResearch      = "legal_research"
	FeaturePrioritySupport    = "priority_support"
	FeatureTeamSeats          = "team_seats"
)

// Default returns the plan definitions bundled with the deployment.
func Default() []PlanDefinition {
	return []PlanDefinition{
		{
			ID:          "essential",
			Name:        "Essential",
			Description: "Core legal tooling for individuals",
			PriceCents:  2900, // $29/month
			Currency:    "usd",
			Interval:    IntervalMonth,
			TrialDays:   7,
			Features: []Feature{
				{Name: FeatureDocumentGeneration, Included: true, Limit: "20 documents/month"},
				{Name: FeatureContractAnalysis, Included: false},
				{Name: FeatureLegalResearch, Included: true},
				{Name: FeaturePrioritySupport, Included: false},
			},
		},
		{
			ID:          "professional",
			Name:        "Professional",
			Description: "Full toolkit for solo practitioners",
			PriceCents:  7900, // $79/month
			Currency:    "usd",
			Interval:    IntervalMonth,
			TrialDays:   14,
			Featured:    true,
			Features: []Feature{
				{Name: FeatureDocumentGeneration, Included: true},
				{Name: FeatureContractAnalysis, Included: true},
				{Name: FeatureLegalResearch, Included: true},
				{Name: FeaturePrioritySupport, Included: true},
			},
		},
		{
			ID:          "firm",
			Name:        "Firm",
			Description: "Team workspace for small firms",
			PriceCents:  19900, // $199/month
			Currency:    "usd",
			Interval:    IntervalMonth,
			TrialDays:   0, // billed from day one
			Features: []Feature{
				{Name: FeatureDocumentGeneration, Included: true},
				{Name: FeatureContractAnalysis, Included: true},
				{Name: FeatureLegalResearch, Included: true},
				{Name: FeaturePrioritySupport, Included: true},
				{Name: FeatureTeamSeats, Included: true, Limit: "10 seats"},
			},
		},
	}
}
