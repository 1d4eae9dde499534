package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viridien/triage/pkg/domain"
)

const genericActionTemplate = "Review order {{order_id}} for {{customer_name}} and follow up with the customer."

const draftSystemContext = "You are a courteous customer support agent. " +
	"Rewrite the given message in a warm, concise tone. Keep every factual " +
	"detail (order ids, amounts, statuses) exactly as given. Reply with the " +
	"message text only."

// stepIngest parses the turn input: it extracts identifiers, appends the
// user message, detects the fresh-start case, and computes the route.
func (e *Engine) stepIngest(ctx context.Context, s *domain.State) (domain.Update, error) {
	upd := domain.Update{
		// Consumed here; never persisted with a value.
		ProvidedOrderID: domain.Ptr(""),
	}
	text := s.TicketText

	extracted := strings.ToUpper(strings.TrimSpace(s.ProvidedOrderID))
	if extracted == "" {
		extracted = e.extractor.OrderID(text)
	}

	issueKnown := s.IssueKnown()
	orderResolved := s.OrderResolved()

	// Fresh start: the conversation switched to a different order, so the
	// resolution and classification done for the old one no longer apply.
	if extracted != "" && s.OrderID != "" && extracted != s.OrderID {
		upd.ClearOrderDetails = true
		upd.ClearCandidateOrders = true
		upd.ClearScenario = true
		upd.IssueType = domain.Ptr("")
		issueKnown = false
		orderResolved = false
	}
	if extracted != "" && extracted != s.OrderID {
		upd.OrderID = &extracted
	}

	if email := e.extractor.Email(text); email != "" && email != s.Email {
		upd.Email = &email
	}

	upd.AppendMessages = []domain.Message{{Role: domain.RoleUser, Content: text}}

	var route domain.Route
	switch {
	case !issueKnown && !orderResolved:
		route = domain.RouteFull
	case issueKnown && !orderResolved:
		route = domain.RouteResolve
	case !issueKnown && orderResolved:
		route = domain.RouteReclassify
	default:
		route = domain.RouteDraft
	}
	upd.Route = &route

	return upd, nil
}

// stepClassifyIssue runs the keyword classifier over the current ticket text.
func (e *Engine) stepClassifyIssue(ctx context.Context, s *domain.State) (domain.Update, error) {
	issueType, evidence := Classify(e.rules, s.TicketText)
	return domain.Update{
		IssueType: &issueType,
		Evidence:  &evidence,
	}, nil
}

// stepResolveOrder owns the resolution branching policy; the lookups
// themselves belong to the order store collaborator. Store failures abort
// the turn (there is no sensible fallback for a wrong order).
func (e *Engine) stepResolveOrder(ctx context.Context, s *domain.State) (domain.Update, error) {
	upd := domain.Update{}

	switch {
	case s.OrderID != "":
		order, err := e.orders.FetchByID(ctx, s.OrderID)
		if errors.Is(err, domain.ErrOrderNotFound) {
			upd.ClearOrderDetails = true
			upd.Scenario = domain.Ptr(domain.ScenarioOrderNotFound)
			return upd, nil
		}
		if err != nil {
			return domain.Update{}, fmt.Errorf("order lookup: %w", err)
		}
		upd.OrderDetails = order
		upd.Scenario = domain.Ptr(domain.ScenarioReply)
		if s.Email == "" && order.Email != "" {
			upd.Email = domain.Ptr(strings.ToLower(order.Email))
		}

	case s.Email != "":
		matches, err := e.orders.SearchByEmail(ctx, s.Email)
		if err != nil {
			return domain.Update{}, fmt.Errorf("order search: %w", err)
		}
		switch len(matches) {
		case 0:
			upd.Scenario = domain.Ptr(domain.ScenarioNoOrdersFound)
		case 1:
			order := matches[0]
			upd.OrderID = &order.OrderID
			upd.OrderDetails = &order
			upd.Scenario = domain.Ptr(domain.ScenarioReply)
		default:
			upd.CandidateOrders = matches
			upd.Scenario = domain.Ptr(domain.ScenarioConfirmOrder)
		}

	default:
		upd.Scenario = domain.Ptr(domain.ScenarioNeedIdentifier)
	}

	return upd, nil
}

// stepPrepareAction fills the action template for the reviewer. It never
// produces user-facing text.
func (e *Engine) stepPrepareAction(ctx context.Context, s *domain.State) (domain.Update, error) {
	if s.Scenario != domain.ScenarioReply {
		return domain.Update{}, nil
	}

	template := genericActionTemplate
	for _, t := range e.templates {
		if t.IssueType == s.IssueType {
			template = t.Template
			break
		}
	}

	action := strings.ReplaceAll(template, "{{customer_name}}", s.CustomerName())
	action = strings.ReplaceAll(action, "{{order_id}}", s.OrderID)

	status := "N/A"
	if s.OrderDetails != nil {
		status = s.OrderDetails.Status
	}
	evidence := fmt.Sprintf("Order ID: %s, Issue Type: %s, Status: %s", valueOr(s.OrderID, "N/A"), valueOr(s.IssueType, domain.IssueUnknown), status)
	recommendation := fmt.Sprintf("Recommend %s resolution for order %s", valueOr(s.IssueType, domain.IssueUnknown), valueOr(s.OrderID, "N/A"))

	return domain.Update{
		SuggestedAction: &action,
		Evidence:        &evidence,
		Recommendation:  &recommendation,
		ReviewStatus:    domain.Ptr(domain.ReviewPending),
	}, nil
}

// stepRetrievePolicies fetches policy citations for the proposed action.
// Retrieval failure degrades to an empty citation list; it never blocks the
// turn.
func (e *Engine) stepRetrievePolicies(ctx context.Context, s *domain.State) (domain.Update, error) {
	if s.Scenario != domain.ScenarioReply || e.policies == nil {
		return domain.Update{ClearPolicyCitations: true}, nil
	}

	query := fmt.Sprintf("Issue type: %s\nTicket: %s\nProposed action: %s", s.IssueType, s.TicketText, s.SuggestedAction)
	citations, err := e.policies.Query(ctx, s.IssueType, query, s.OrderDetails, e.topK)
	if err != nil {
		e.logger.Warn("policy retrieval failed, proceeding without citations", "err", err)
		return domain.Update{ClearPolicyCitations: true}, nil
	}
	if len(citations) == 0 {
		return domain.Update{ClearPolicyCitations: true}, nil
	}
	return domain.Update{PolicyCitations: citations}, nil
}

// stepDraftReply composes the next outbound message. For REPLY scenarios it
// drives the phase sub-state-machine; the phase is recomputed from state on
// every invocation, never persisted.
func (e *Engine) stepDraftReply(ctx context.Context, s *domain.State) (domain.Update, error) {
	if s.Scenario != domain.ScenarioReply {
		return e.draftClarification(ctx, s), nil
	}

	switch PhaseOf(s.IssueType, s.ReviewStatus) {
	case PhaseUnknown:
		// An order is resolved but we still don't know what the issue is.
		fallback := fmt.Sprintf("Hi %s, thanks for reaching out about order %s. Could you describe the issue you are running into so we can help?", s.CustomerName(), s.OrderID)
		text := e.generateOrFallback(ctx, s.TicketText, fallback)
		return domain.Update{
			DraftReply:        &text,
			ClearReviewStatus: true,
			AppendMessages:    []domain.Message{{Role: domain.RoleAgent, Content: text}},
		}, nil

	case PhaseApproved:
		// Compose only: the finalize step appends the single marker message.
		fallback := fmt.Sprintf("Hi %s, good news. We will proceed as follows: %s", s.CustomerName(), s.SuggestedAction)
		text := e.generateOrFallback(ctx, fmt.Sprintf("Confirm to the customer that the following action was approved and will be carried out: %s", s.SuggestedAction), fallback)
		return domain.Update{DraftReply: &text}, nil

	case PhaseRejected:
		fallback := fmt.Sprintf("Hi %s, after careful review we are unable to proceed with the requested action for order %s. We apologize for the inconvenience.", s.CustomerName(), s.OrderID)
		text := e.generateOrFallback(ctx, fmt.Sprintf("Politely tell the customer that the request for order %s was declined after review.", s.OrderID), fallback)
		return domain.Update{DraftReply: &text}, nil

	default: // PhasePending, including REQUEST_CHANGES re-drafts.
		userContext := fmt.Sprintf("Acknowledge the customer's %s ticket for order %s: a ticket has been raised and the proposed resolution is pending review.", s.IssueType, s.OrderID)
		fallback := fmt.Sprintf("Hi %s, thanks for reaching out. We have raised a ticket for your %s request on order %s. Our team is reviewing the proposed resolution and will get back to you shortly.", s.CustomerName(), s.IssueType, s.OrderID)
		if s.ReviewStatus == domain.ReviewRequestChanges && s.AdminFeedback != "" {
			userContext += fmt.Sprintf(" Revise the acknowledgment taking this reviewer feedback into account: %s", s.AdminFeedback)
			fallback += fmt.Sprintf("\n\n[Admin note: %s]", s.AdminFeedback)
		}
		text := e.generateOrFallback(ctx, userContext, fallback)
		return domain.Update{
			DraftReply:     &text,
			ReviewStatus:   domain.Ptr(domain.ReviewPending),
			AppendMessages: []domain.Message{{Role: domain.RoleAgent, Content: text}},
		}, nil
	}
}

// draftClarification builds the non-REPLY clarification message for the
// current scenario and returns to the user without suspending.
func (e *Engine) draftClarification(ctx context.Context, s *domain.State) domain.Update {
	var fallback string
	switch s.Scenario {
	case domain.ScenarioOrderNotFound:
		fallback = fmt.Sprintf("Hi %s, we could not find an order with id %s. Could you double-check the order id?", s.CustomerName(), s.OrderID)
	case domain.ScenarioNoOrdersFound:
		fallback = fmt.Sprintf("Hi %s, we could not find any orders for %s. Could you verify the email address or share your order id?", s.CustomerName(), s.Email)
	case domain.ScenarioConfirmOrder:
		var b strings.Builder
		fmt.Fprintf(&b, "Hi %s, we found several orders for your account:\n", s.CustomerName())
		for _, o := range s.CandidateOrders {
			c := o.Summarize()
			if c.FirstItem != "" {
				fmt.Fprintf(&b, "- %s (%s) including %s\n", c.OrderID, c.Status, c.FirstItem)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", c.OrderID, c.Status)
			}
		}
		b.WriteString("Which order is this about?")
		fallback = b.String()
	default: // ScenarioNeedIdentifier and the unset scenario.
		fallback = fmt.Sprintf("Hi %s, could you share your order id (e.g. ORD1001) or the email used for the purchase so we can look into this?", s.CustomerName())
	}

	text := e.generateOrFallback(ctx, fallback, fallback)
	return domain.Update{
		DraftReply:     &text,
		AppendMessages: []domain.Message{{Role: domain.RoleAgent, Content: text}},
	}
}

// stepAdminReview is the suspend point. It is only ever executed on resume,
// after the decision was injected; it validates the injected fields and
// passes through.
func (e *Engine) stepAdminReview(ctx context.Context, s *domain.State) (domain.Update, error) {
	switch s.ReviewStatus {
	case domain.ReviewApproved, domain.ReviewRejected, domain.ReviewRequestChanges:
	default:
		return domain.Update{}, fmt.Errorf("%w: %q", domain.ErrInvalidReviewStatus, s.ReviewStatus)
	}

	e.logger.Info("admin review decision",
		"status", s.ReviewStatus,
		"has_feedback", s.AdminFeedback != "",
	)
	return domain.Update{}, nil
}

// stepFinalize appends the single final marker message and ends the turn.
// The thread stays resumable: a future ticket text restarts at ingest with
// the accumulated context.
func (e *Engine) stepFinalize(ctx context.Context, s *domain.State) (domain.Update, error) {
	marker := "[REJECTED]"
	if s.ReviewStatus == domain.ReviewApproved {
		marker = "[APPROVED]"
	}
	return domain.Update{
		AppendMessages: []domain.Message{{
			Role:    domain.RoleAgent,
			Content: marker + " " + s.DraftReply,
		}},
	}, nil
}

// generateOrFallback asks the text generator to phrase userContext and falls
// back to the deterministic text when the collaborator is absent or fails.
// Drafting degrades instead of failing the turn.
func (e *Engine) generateOrFallback(ctx context.Context, userContext, fallback string) string {
	if e.generator == nil {
		return fallback
	}
	out, err := e.generator.Generate(ctx, draftSystemContext, userContext)
	if err != nil || strings.TrimSpace(out) == "" {
		e.logger.Warn("text generation failed, using fallback", "err", err)
		return fallback
	}
	return strings.TrimSpace(out)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
