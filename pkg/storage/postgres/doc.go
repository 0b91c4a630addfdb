// Package postgres implements the billing backend's subscription storage.
//
// # Overview
//
// Subscription records are append-preserving: cancellation freezes a record
// instead of deleting it, and a later subscription is a new row. The
// "at most one live subscription per user" rule is a genuine database
// constraint (a partial unique index over live statuses), not client
// discipline — concurrent starts race on the index and the loser surfaces
// ErrAlreadySubscribed.
//
// A Redis read-through cache (Cache) keeps current-subscription lookups off
// the primary, invalidated on every write. The Sweeper runs scheduled status
// transitions (active past period end and trial past trial end both become
// past_due) so entitlement checks never have to guess.
package postgres
