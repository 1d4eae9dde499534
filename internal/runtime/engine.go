package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
	"github.com/viridien/triage/pkg/session"
)

// StepFunc is a processing step: it reads state and returns a partial update.
// Updates are applied by the executor only when the step returns no error.
type StepFunc func(ctx context.Context, s *domain.State) (domain.Update, error)

// RouterFunc is a pure routing predicate: it picks the next step from state.
type RouterFunc func(s *domain.State) domain.StepName

// Engine is the workflow executor. It owns the fixed step registry and
// router table, walks Step -> Router -> Step from a resume point, and
// suspends immediately before the admin-review checkpoint.
type Engine struct {
	sessions  *session.Manager
	orders    ports.OrderStore
	generator ports.TextGenerator
	policies  ports.PolicyRetriever

	rules     []domain.ClassificationRule
	templates []domain.ActionTemplate
	extractor *Extractor
	topK      int

	steps   map[domain.StepName]StepFunc
	routers map[domain.StepName]RouterFunc
	next    map[domain.StepName]domain.StepName

	suspendBefore domain.StepName
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithTextGenerator sets the text-generation collaborator. Without one, the
// drafting steps use their deterministic fallback templates.
func WithTextGenerator(g ports.TextGenerator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithPolicyRetriever sets the policy retrieval collaborator.
func WithPolicyRetriever(p ports.PolicyRetriever) Option {
	return func(e *Engine) { e.policies = p }
}

// WithRules sets the classification rule table.
func WithRules(rules []domain.ClassificationRule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithTemplates sets the suggested-action template table.
func WithTemplates(templates []domain.ActionTemplate) Option {
	return func(e *Engine) { e.templates = templates }
}

// WithExtractor replaces the default identifier extractor.
func WithExtractor(x *Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithTopK sets how many policy citations are retrieved per action.
func WithTopK(k int) Option {
	return func(e *Engine) { e.topK = k }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds the executor over a session manager and order store.
// All collaborators are explicit dependencies; there are no process-wide
// singletons, so multiple engines can coexist in one process.
func NewEngine(sessions *session.Manager, orders ports.OrderStore, opts ...Option) *Engine {
	e := &Engine{
		sessions:      sessions,
		orders:        orders,
		topK:          3,
		suspendBefore: domain.StepAdminReview,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.extractor == nil {
		e.extractor, _ = NewExtractor(defaultOrderIDPrefix)
	}

	e.steps = map[domain.StepName]StepFunc{
		domain.StepIngest:           e.stepIngest,
		domain.StepClassifyIssue:    e.stepClassifyIssue,
		domain.StepResolveOrder:     e.stepResolveOrder,
		domain.StepPrepareAction:    e.stepPrepareAction,
		domain.StepRetrievePolicies: e.stepRetrievePolicies,
		domain.StepEvaluatePolicies: e.stepEvaluatePolicies,
		domain.StepDraftReply:       e.stepDraftReply,
		domain.StepAdminReview:      e.stepAdminReview,
		domain.StepFinalize:         e.stepFinalize,
	}

	// Linear edges. Steps absent here either route via a predicate or end
	// the walk.
	e.next = map[domain.StepName]domain.StepName{
		domain.StepClassifyIssue:    domain.StepResolveOrder,
		domain.StepResolveOrder:     domain.StepPrepareAction,
		domain.StepRetrievePolicies: domain.StepEvaluatePolicies,
		domain.StepEvaluatePolicies: domain.StepDraftReply,
		domain.StepFinalize:         domain.StepEnd,
	}

	e.routers = map[domain.StepName]RouterFunc{
		domain.StepIngest:        routeAfterIngest,
		domain.StepPrepareAction: routeAfterPrepareAction,
		domain.StepDraftReply:    routeAfterDraft,
		domain.StepAdminReview:   routeAfterAdminReview,
	}

	return e
}

// StartOrContinue processes a user turn: it loads (or initializes) the
// thread, merges the new input, and runs steps until a suspend point or a
// terminal step. The resulting state is persisted only when the whole turn
// succeeds, so a failed turn can be retried safely.
func (e *Engine) StartOrContinue(ctx context.Context, threadID, ticketText, orderID string) (*domain.StateView, error) {
	if strings.TrimSpace(ticketText) == "" {
		return nil, domain.ErrEmptyTicket
	}

	var view *domain.StateView
	err := e.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		store := e.sessions.Store()

		state, err := store.Load(ctx, threadID)
		if errors.Is(err, domain.ErrThreadNotFound) {
			state = domain.NewState()
		} else if err != nil {
			return fmt.Errorf("load thread: %w", err)
		}

		state.TicketText = ticketText
		state.ProvidedOrderID = orderID

		if err := e.run(ctx, threadID, state, domain.StepIngest, false); err != nil {
			return err
		}

		if err := store.Save(ctx, threadID, state); err != nil {
			return fmt.Errorf("save thread: %w", err)
		}
		view = domain.NewStateView(threadID, state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SubmitReviewDecision resumes a thread suspended at the admin-review
// checkpoint with the reviewer's verdict. It fails with ErrNoPendingReview,
// mutating nothing, when the thread is not suspended there.
func (e *Engine) SubmitReviewDecision(ctx context.Context, threadID string, status domain.ReviewStatus, feedback string) (*domain.StateView, error) {
	switch status {
	case domain.ReviewApproved, domain.ReviewRejected, domain.ReviewRequestChanges:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidReviewStatus, status)
	}

	var view *domain.StateView
	err := e.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		store := e.sessions.Store()

		state, err := store.Load(ctx, threadID)
		if err != nil {
			return err
		}
		if state.PendingStep != domain.StepAdminReview {
			return domain.ErrNoPendingReview
		}

		// Inject the external decision, then resume from the checkpoint
		// itself. The failed-run case keeps the stored pending state intact.
		state.ReviewStatus = status
		state.AdminFeedback = feedback
		state.PendingStep = domain.StepEnd

		if err := e.run(ctx, threadID, state, domain.StepAdminReview, true); err != nil {
			return err
		}

		if err := store.Save(ctx, threadID, state); err != nil {
			return fmt.Errorf("save thread: %w", err)
		}
		view = domain.NewStateView(threadID, state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// PendingReviews lists threads currently suspended at the admin checkpoint.
func (e *Engine) PendingReviews(ctx context.Context) ([]domain.PendingTicket, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	var tickets []domain.PendingTicket
	for _, id := range ids {
		state, err := e.sessions.Store().Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrThreadNotFound) {
				continue // Deleted between List and Load.
			}
			return nil, err
		}
		if state.PendingStep != domain.StepAdminReview {
			continue
		}
		tickets = append(tickets, domain.PendingTicket{
			ThreadID:        id,
			OrderID:         state.OrderID,
			CustomerName:    state.CustomerName(),
			IssueType:       state.IssueType,
			SuggestedAction: state.SuggestedAction,
			AppliedPolicies: state.AppliedPolicies,
			DraftReply:      state.DraftReply,
		})
	}
	return tickets, nil
}

// run walks the step graph from entry until a terminal step or the suspend
// point. resuming skips the suspend check for the entry step only, so a
// resumed checkpoint executes instead of re-suspending.
func (e *Engine) run(ctx context.Context, threadID string, s *domain.State, entry domain.StepName, resuming bool) error {
	cur := entry
	for cur != domain.StepEnd {
		if cur == e.suspendBefore && !resuming {
			s.PendingStep = cur
			e.logger.Debug("suspending turn", "thread_id", threadID, "pending_step", cur)
			if e.hooks.OnSuspend != nil {
				e.hooks.OnSuspend(threadID, cur)
			}
			return nil
		}
		resuming = false

		fn, ok := e.steps[cur]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownStep, cur)
		}

		if e.hooks.OnStepStart != nil {
			e.hooks.OnStepStart(threadID, cur)
		}
		start := time.Now()
		upd, err := fn(ctx, s)
		if e.hooks.OnStepEnd != nil {
			e.hooks.OnStepEnd(threadID, cur, time.Since(start), err)
		}
		if err != nil {
			return fmt.Errorf("step %s: %w", cur, err)
		}

		upd.Apply(s)
		cur = e.route(cur, s)
	}

	s.PendingStep = domain.StepEnd
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(threadID, s.Route)
	}
	return nil
}

func (e *Engine) route(cur domain.StepName, s *domain.State) domain.StepName {
	if router, ok := e.routers[cur]; ok {
		return router(s)
	}
	return e.next[cur]
}

// routeAfterIngest implements the multi-turn optimization: never repeat work
// a previous turn already did.
func routeAfterIngest(s *domain.State) domain.StepName {
	switch s.Route {
	case domain.RouteFull, domain.RouteReclassify:
		return domain.StepClassifyIssue
	case domain.RouteResolve:
		return domain.StepResolveOrder
	default:
		return domain.StepDraftReply
	}
}

// routeAfterPrepareAction runs the policy subflow for REPLY scenarios only.
func routeAfterPrepareAction(s *domain.State) domain.StepName {
	if s.Scenario == domain.ScenarioReply {
		return domain.StepRetrievePolicies
	}
	return domain.StepDraftReply
}

// routeAfterDraft decides between suspending for review, finalizing, and
// returning to the user.
func routeAfterDraft(s *domain.State) domain.StepName {
	if s.Scenario != domain.ScenarioReply {
		return domain.StepEnd
	}
	switch PhaseOf(s.IssueType, s.ReviewStatus) {
	case PhaseApproved, PhaseRejected:
		return domain.StepFinalize
	case PhaseUnknown:
		return domain.StepEnd
	default:
		return domain.StepAdminReview
	}
}

// routeAfterAdminReview always re-enters drafting, which reads the injected
// review status and picks the matching phase.
func routeAfterAdminReview(s *domain.State) domain.StepName {
	return domain.StepDraftReply
}
