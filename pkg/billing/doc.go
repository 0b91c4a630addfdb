// Package billing implements the subscription lifecycle for the portal.
//
// # Overview
//
// This package holds the client-facing half of the billing subsystem: the
// subscription types, the backend wire contract, the per-session subscription
// store, the lifecycle controller, and the error classifier that turns
// arbitrary backend failures into user-displayable messages.
//
// # Lifecycle
//
// A subscription is created only through Controller.Start (status begins at
// trial when the plan has trial days, active otherwise), mutated by
// Controller.ChangePlan (plan changes in place, status untouched) and
// Controller.Cancel (status becomes canceled, periods frozen). A canceled
// record is terminal; a later subscription is a new record.
//
// Each operation checks its guard pre-conditions against the store before
// issuing any network call:
//
//	ctrl := billing.NewController(store, backend, catalog)
//	_, err := ctrl.Start(ctx, "professional")
//	var guardErr *billing.GuardError
//	if errors.As(err, &guardErr) {
//		// rejected locally, nothing was sent to the backend
//	}
//
// Billing mutations are never retried automatically; a failed call surfaces
// exactly once, classified:
//
//	msg := billing.Classify(err)
//	render(msg.Title, msg.Description)
//
// # Related Packages
//
//   - pkg/plans: Catalog consulted for plan validation
//   - pkg/entitlement: Guard consuming the store's snapshot
package billing
