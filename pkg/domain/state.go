package domain

// StepName identifies a processing step in the triage flow.
type StepName string

const (
	StepIngest           StepName = "ingest"
	StepClassifyIssue    StepName = "classify_issue"
	StepResolveOrder     StepName = "resolve_order"
	StepPrepareAction    StepName = "prepare_action"
	StepRetrievePolicies StepName = "retrieve_policies"
	StepEvaluatePolicies StepName = "evaluate_policies"
	StepDraftReply       StepName = "draft_reply"
	StepAdminReview      StepName = "admin_review"
	StepFinalize         StepName = "finalize"

	// StepEnd is the sentinel "no next step" value returned by routers.
	StepEnd StepName = ""
)

// Scenario classifies what kind of response the current turn needs.
type Scenario string

const (
	ScenarioReply          Scenario = "reply"
	ScenarioNeedIdentifier Scenario = "need_identifier"
	ScenarioOrderNotFound  Scenario = "order_not_found"
	ScenarioNoOrdersFound  Scenario = "no_orders_found"
	ScenarioConfirmOrder   Scenario = "confirm_order"
)

// Route is the transient per-turn decision of which steps to (re)run.
// It is recomputed by ingest on every turn and carries no meaning across turns.
type Route string

const (
	RouteFull       Route = "full"       // Neither issue_type nor order resolved
	RouteReclassify Route = "reclassify" // Only issue_type missing (or "unknown")
	RouteResolve    Route = "resolve"    // Only order_details missing
	RouteDraft      Route = "draft"      // Both resolved, pure follow-up
)

// ReviewStatus is the state of the admin review checkpoint.
type ReviewStatus string

const (
	ReviewPending        ReviewStatus = "pending"
	ReviewApproved       ReviewStatus = "approved"
	ReviewRejected       ReviewStatus = "rejected"
	ReviewRequestChanges ReviewStatus = "request_changes"
)

// IssueUnknown is the explicit "classified but unrecognized" value,
// distinct from the empty string (never classified).
const IssueUnknown = "unknown"

// Role is the author of a transcript message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is a single transcript entry. The transcript is append-only;
// the engine never truncates it.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the full conversation state for one thread.
// It is the unit of persistence: the store holds the latest snapshot
// together with PendingStep, which marks where a suspended turn resumes.
type State struct {
	// TicketText is the raw input of the current turn.
	TicketText string `json:"ticket_text"`

	// ProvidedOrderID carries an order id supplied alongside the turn input.
	// Consumed by ingest, never persisted across turns with a value.
	ProvidedOrderID string `json:"provided_order_id,omitempty"`

	// OrderID and Email are resolved customer identifiers. Once set they
	// persist across turns until explicitly replaced.
	OrderID string `json:"order_id,omitempty"`
	Email   string `json:"email,omitempty"`

	// IssueType is the classification result. Empty means unset;
	// IssueUnknown is a valid explicit value.
	IssueType string `json:"issue_type,omitempty"`

	// OrderDetails is the fetched order record. Non-nil implies the
	// conversation is resolved to a concrete order.
	OrderDetails *Order `json:"order_details,omitempty"`

	// CandidateOrders is populated only when an email search yields more
	// than one match.
	CandidateOrders []Order `json:"candidate_orders,omitempty"`

	Scenario Scenario `json:"scenario,omitempty"`
	Route    Route    `json:"route,omitempty"`

	// Evidence and Recommendation summarize the resolution for the reviewer.
	Evidence       string `json:"evidence,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`

	// SuggestedAction is the template-derived action shown to the admin,
	// possibly enriched with a policy compliance note.
	SuggestedAction  string          `json:"suggested_action,omitempty"`
	PolicyCitations  []PolicyCitation `json:"policy_citations,omitempty"`
	PolicyEvaluation string          `json:"policy_evaluation,omitempty"`
	AppliedPolicies  []AppliedPolicy `json:"applied_policies,omitempty"`

	// DraftReply is the latest composed outbound text.
	DraftReply string `json:"draft_reply,omitempty"`

	ReviewStatus  ReviewStatus `json:"review_status,omitempty"`
	AdminFeedback string       `json:"admin_feedback,omitempty"`

	Messages []Message `json:"messages"`

	// PendingStep is the step execution is suspended before. Empty means
	// the last turn ran to a terminal step or returned to the user.
	PendingStep StepName `json:"pending_step,omitempty"`

	// Sealed holds the base64 ciphertext envelope written by the encryption
	// store middleware. A state with Sealed set carries no other fields.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state for a new thread.
func NewState() *State {
	return &State{Messages: []Message{}}
}

// IssueKnown reports whether the issue type has been meaningfully classified.
func (s *State) IssueKnown() bool {
	return s.IssueType != "" && s.IssueType != IssueUnknown
}

// OrderResolved reports whether the conversation is pinned to a fetched order.
func (s *State) OrderResolved() bool {
	return s.OrderDetails != nil
}

// CustomerName returns the resolved customer's name, or a generic fallback.
func (s *State) CustomerName() string {
	if s.OrderDetails != nil && s.OrderDetails.CustomerName != "" {
		return s.OrderDetails.CustomerName
	}
	return "Customer"
}
