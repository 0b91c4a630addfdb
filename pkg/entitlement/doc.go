// Package entitlement decides whether a protected action may proceed.
//
// # Overview
//
// The guard is a pure decision function over three inputs: the route's
// capability requirement, the caller's authentication state, and the
// subscription store's snapshot. It is the only place period-end enforcement
// happens — the lifecycle controller never revokes access itself, so "what
// can I still use" stays centralized and independent of when a cancellation
// occurred.
//
// # Decisions
//
//	entitlement.Decide(entitlement.RequireSubscription, true, store.Snapshot(), time.Now())
//
// returns Allow, Deny (with reason unauthenticated, no_subscription or
// expired), or Pending while the store is loading. Pending must be surfaced
// as a waiting state, never optimistically resolved.
//
// A canceled subscription keeps access through the paid-for period:
// Deny(expired) begins only after CurrentPeriodEnd.
//
// # Related Packages
//
//   - pkg/billing: Store snapshots consumed by the guard
//   - pkg/plans: Feature entitlements per plan
package entitlement
