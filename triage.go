package triage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/internal/runtime"
	"github.com/viridien/triage/pkg/adapters/memory"
	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
	"github.com/viridien/triage/pkg/session"
)

// Engine is the high-level entry point for the triage library. It wraps the
// internal workflow runtime and the session layer behind a small API:
// Triage for user turns, Review for admin decisions.
type Engine struct {
	sessions *session.Manager
	runtime  *runtime.Engine

	store       ports.StateStore
	locker      ports.DistributedLocker
	orders      ports.OrderStore
	runtimeOpts []runtime.Option
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStateStore sets the conversation state store. Defaults to the
// in-memory store, which does not survive restarts.
func WithStateStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithDistributedLocker adds cross-process locking on top of the built-in
// in-process per-thread locks.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithOrderStore sets the order lookup collaborator.
func WithOrderStore(orders ports.OrderStore) Option {
	return func(e *Engine) { e.orders = orders }
}

// WithTextGenerator sets the LLM used to phrase outbound messages. Without
// one, drafting falls back to deterministic templates.
func WithTextGenerator(g ports.TextGenerator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTextGenerator(g))
	}
}

// WithPolicyRetriever enables the policy citation subflow.
func WithPolicyRetriever(p ports.PolicyRetriever) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPolicyRetriever(p))
	}
}

// WithRules sets the issue classification rule table.
func WithRules(rules []domain.ClassificationRule) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRules(rules))
	}
}

// WithTemplates sets the suggested-action templates.
func WithTemplates(templates []domain.ActionTemplate) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTemplates(templates))
	}
}

// WithOrderIDPrefix changes the order id pattern recognized in ticket text
// (default "ORD", matching ids like ORD1001).
func WithOrderIDPrefix(prefix string) Option {
	return func(e *Engine) {
		if x, err := runtime.NewExtractor(prefix); err == nil {
			e.runtimeOpts = append(e.runtimeOpts, runtime.WithExtractor(x))
		}
	}
}

// WithTopK sets how many policy citations are retrieved per suggested action.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTopK(k))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New initializes a triage Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.orders == nil {
		e.orders = memory.NewOrderStore(nil)
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	e.runtimeOpts = append(e.runtimeOpts, runtime.WithLogger(e.logger))
	e.runtime = runtime.NewEngine(e.sessions, e.orders, e.runtimeOpts...)
	return e
}

// Triage processes one user turn on the given thread. An empty threadID
// starts a new thread with a generated id; the returned view carries the id
// to use on follow-up turns.
func (e *Engine) Triage(ctx context.Context, threadID, ticketText, orderID string) (*domain.StateView, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	return e.runtime.StartOrContinue(ctx, threadID, ticketText, orderID)
}

// Review resumes a thread suspended for admin review with the reviewer's
// decision. APPROVED and REJECTED finalize the turn; REQUEST_CHANGES
// re-drafts with the feedback and suspends again.
func (e *Engine) Review(ctx context.Context, threadID string, status domain.ReviewStatus, feedback string) (*domain.StateView, error) {
	return e.runtime.SubmitReviewDecision(ctx, threadID, status, feedback)
}

// PendingReviews lists the threads currently waiting for an admin decision.
func (e *Engine) PendingReviews(ctx context.Context) ([]domain.PendingTicket, error) {
	return e.runtime.PendingReviews(ctx)
}

// DeleteThread removes a thread and its state. Deleting an unknown thread
// is not an error.
func (e *Engine) DeleteThread(ctx context.Context, threadID string) error {
	return e.sessions.Delete(ctx, threadID)
}
