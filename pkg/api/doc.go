// Package api exposes the billing backend's HTTP surface.
//
// # Overview
//
// Four operations make up the wire contract consumed by the portal client:
//
//	GET    /v1/subscription         current subscription or {"subscription": null}
//	POST   /v1/subscription         start a subscription {plan_id}
//	PATCH  /v1/subscription         change plan in place {plan_id}
//	POST   /v1/subscription/cancel  cancel at period end
//
// plus the read-only plan catalog (GET /v1/plans, GET /v1/plans/{id}) and the
// caller's resolved entitlements (GET /v1/entitlements).
//
// Failures are written as the structured error envelope
// {"error":{"type","message","code"}} so clients can classify them; raw
// database or payment-processor errors never reach the wire.
package api
