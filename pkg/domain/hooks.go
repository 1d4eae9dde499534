package domain

import "time"

// LifecycleHooks are optional observability callbacks fired by the executor.
// Nil hooks are skipped. Hooks must not mutate state.
type LifecycleHooks struct {
	// OnStepStart fires before a step function runs.
	OnStepStart func(threadID string, step StepName)

	// OnStepEnd fires after a step function returns, with its duration and
	// error (nil on success).
	OnStepEnd func(threadID string, step StepName, elapsed time.Duration, err error)

	// OnSuspend fires when execution pauses before the designated step.
	OnSuspend func(threadID string, step StepName)

	// OnTurnEnd fires once per completed turn with the route it took.
	OnTurnEnd func(threadID string, route Route)
}
