// Package domain holds the core types of the ticket triage engine:
// the conversation state, the partial updates steps produce, orders,
// classification and template tables, and the errors shared across layers.
// It has no dependencies on the runtime or any adapter.
package domain
