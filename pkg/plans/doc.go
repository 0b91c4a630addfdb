// Package plans provides the static plan catalog for the portal.
//
// # Overview
//
// The catalog is an immutable, ordered registry of purchasable plans and the
// feature entitlements each plan unlocks. It is built once at startup from
// definitions bundled with the deployment and never touches the network, so
// every component (lifecycle controller, entitlement guard, API handlers)
// observes the same catalog and cannot make diverging entitlement decisions.
//
// # Bundled Plans
//
// Essential ($29/month, 7-day trial):
//   - Document generation (20 documents/month)
//   - Legal research
//
// Professional ($79/month, 14-day trial, featured):
//   - Unlimited document generation
//   - Contract analysis
//   - Legal research
//   - Priority support
//
// Firm ($199/month, no trial):
//   - Everything in Professional
//   - Up to 10 team seats
//   - Dedicated account review
//
// # Usage Example
//
//	catalog := plans.NewCatalog(plans.Default())
//	plan, err := catalog.Get("professional")
//	if errors.Is(err, plans.ErrNotFound) {
//		// reject the requested plan before calling the billing backend
//	}
//
// # Related Packages
//
//   - pkg/billing: Lifecycle controller validating plan IDs against the catalog
//   - pkg/entitlement: Guard resolving feature entitlements per plan
package plans
