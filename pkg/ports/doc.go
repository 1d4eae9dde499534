// Package ports defines the interfaces between the triage engine and the
// outside world: state persistence, distributed locking, and the external
// collaborators (order store, text generation, policy retrieval).
// Adapters under pkg/adapters implement these.
package ports
