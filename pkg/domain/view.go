package domain

// StateView is the read model surfaced to the transport layer after a turn.
type StateView struct {
	ThreadID         string             `json:"thread_id"`
	OrderID          string             `json:"order_id,omitempty"`
	Email            string             `json:"email,omitempty"`
	IssueType        string             `json:"issue_type,omitempty"`
	Scenario         Scenario           `json:"scenario,omitempty"`
	DraftReply       string             `json:"draft_reply,omitempty"`
	SuggestedAction  string             `json:"suggested_action,omitempty"`
	PolicyEvaluation string             `json:"policy_evaluation,omitempty"`
	AppliedPolicies  []AppliedPolicy    `json:"applied_policies,omitempty"`
	ReviewStatus     ReviewStatus       `json:"review_status,omitempty"`
	Evidence         string             `json:"evidence,omitempty"`
	Recommendation   string             `json:"recommendation,omitempty"`
	CandidateOrders  []CandidateSummary `json:"candidate_orders,omitempty"`
	Messages         []Message          `json:"messages"`
	PendingReview    bool               `json:"pending_review"`
}

// NewStateView projects a state snapshot into the caller-facing view.
func NewStateView(threadID string, s *State) *StateView {
	v := &StateView{
		ThreadID:         threadID,
		OrderID:          s.OrderID,
		Email:            s.Email,
		IssueType:        s.IssueType,
		Scenario:         s.Scenario,
		DraftReply:       s.DraftReply,
		SuggestedAction:  s.SuggestedAction,
		PolicyEvaluation: s.PolicyEvaluation,
		AppliedPolicies:  s.AppliedPolicies,
		ReviewStatus:     s.ReviewStatus,
		Evidence:         s.Evidence,
		Recommendation:   s.Recommendation,
		Messages:         s.Messages,
		PendingReview:    s.PendingStep == StepAdminReview,
	}
	for _, o := range s.CandidateOrders {
		v.CandidateOrders = append(v.CandidateOrders, o.Summarize())
	}
	return v
}

// PendingTicket is the reviewer-facing summary of a suspended thread.
type PendingTicket struct {
	ThreadID        string          `json:"thread_id"`
	OrderID         string          `json:"order_id,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	IssueType       string          `json:"issue_type,omitempty"`
	SuggestedAction string          `json:"suggested_action,omitempty"`
	AppliedPolicies []AppliedPolicy `json:"applied_policies,omitempty"`
	DraftReply      string          `json:"draft_reply,omitempty"`
}
