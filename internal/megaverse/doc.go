// Package megaverse owns provisioning concerns.
//
// Ownership boundary:
// - goal map retrieval
// - turning a target state (pattern or goal map) into ordered mutations
// - pacing between mutations
// - run reports
//
// Retries belong to the transport; this package issues each mutation once
// and records its outcome.
package megaverse
