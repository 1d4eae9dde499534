package domain

// Update is a partial state update produced by a single step.
// Nil pointer fields are untouched; the Clear* flags express the
// explicit-null case (reset the field) that a nil pointer cannot.
// Updates are applied atomically by the executor: a step that returns
// an error commits nothing.
type Update struct {
	TicketText      *string
	ProvidedOrderID *string
	OrderID         *string
	Email           *string
	IssueType       *string

	OrderDetails      *Order
	ClearOrderDetails bool

	CandidateOrders      []Order
	ClearCandidateOrders bool

	Scenario      *Scenario
	ClearScenario bool
	Route         *Route

	Evidence        *string
	Recommendation  *string
	SuggestedAction *string

	PolicyCitations      []PolicyCitation
	ClearPolicyCitations bool
	PolicyEvaluation     *string
	AppliedPolicies      []AppliedPolicy

	DraftReply *string

	ReviewStatus      *ReviewStatus
	ClearReviewStatus bool
	AdminFeedback     *string

	// AppendMessages is merged onto the transcript; existing entries are
	// never removed or rewritten.
	AppendMessages []Message
}

// Apply shallow-merges the update into the state.
func (u Update) Apply(s *State) {
	if u.TicketText != nil {
		s.TicketText = *u.TicketText
	}
	if u.ProvidedOrderID != nil {
		s.ProvidedOrderID = *u.ProvidedOrderID
	}
	if u.OrderID != nil {
		s.OrderID = *u.OrderID
	}
	if u.Email != nil {
		s.Email = *u.Email
	}
	if u.IssueType != nil {
		s.IssueType = *u.IssueType
	}

	if u.ClearOrderDetails {
		s.OrderDetails = nil
	} else if u.OrderDetails != nil {
		s.OrderDetails = u.OrderDetails
	}

	if u.ClearCandidateOrders {
		s.CandidateOrders = nil
	} else if u.CandidateOrders != nil {
		s.CandidateOrders = u.CandidateOrders
	}

	if u.ClearScenario {
		s.Scenario = ""
	} else if u.Scenario != nil {
		s.Scenario = *u.Scenario
	}
	if u.Route != nil {
		s.Route = *u.Route
	}

	if u.Evidence != nil {
		s.Evidence = *u.Evidence
	}
	if u.Recommendation != nil {
		s.Recommendation = *u.Recommendation
	}
	if u.SuggestedAction != nil {
		s.SuggestedAction = *u.SuggestedAction
	}

	if u.ClearPolicyCitations {
		s.PolicyCitations = nil
	} else if u.PolicyCitations != nil {
		s.PolicyCitations = u.PolicyCitations
	}
	if u.PolicyEvaluation != nil {
		s.PolicyEvaluation = *u.PolicyEvaluation
	}
	if u.AppliedPolicies != nil {
		s.AppliedPolicies = u.AppliedPolicies
	}

	if u.DraftReply != nil {
		s.DraftReply = *u.DraftReply
	}

	if u.ClearReviewStatus {
		s.ReviewStatus = ""
	} else if u.ReviewStatus != nil {
		s.ReviewStatus = *u.ReviewStatus
	}
	if u.AdminFeedback != nil {
		s.AdminFeedback = *u.AdminFeedback
	}

	s.Messages = append(s.Messages, u.AppendMessages...)
}

// Ptr returns a pointer to v. Convenience for building updates.
func Ptr[T any](v T) *T {
	return &v
}
