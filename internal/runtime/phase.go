package runtime

import "github.com/viridien/triage/pkg/domain"

// Phase is the drafting sub-state for REPLY scenarios. It is never persisted;
// it is recomputed from issue type and review status on every draft call.
type Phase string

const (
	// PhaseUnknown: an order is resolved but the issue type is still
	// unset/unknown, so the customer has to describe the problem first.
	PhaseUnknown Phase = "unknown"

	// PhasePending: awaiting (or re-entering) admin review.
	PhasePending Phase = "pending"

	PhaseApproved Phase = "approved"
	PhaseRejected Phase = "rejected"
)

// PhaseOf is the pure function from (issue_type, review_status) to phase.
// REQUEST_CHANGES re-enters the pending phase: the draft step re-drafts with
// the admin feedback and suspends again.
func PhaseOf(issueType string, status domain.ReviewStatus) Phase {
	if issueType == "" || issueType == domain.IssueUnknown {
		return PhaseUnknown
	}
	switch status {
	case domain.ReviewApproved:
		return PhaseApproved
	case domain.ReviewRejected:
		return PhaseRejected
	default:
		// Covers PENDING, REQUEST_CHANGES and the unset status.
		return PhasePending
	}
}
