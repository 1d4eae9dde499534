package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateApply(t *testing.T) {
	t.Run("nil pointers leave fields untouched", func(t *testing.T) {
		s := NewState()
		s.OrderID = "ORD1001"
		s.IssueType = "refund_request"
		s.Messages = []Message{{Role: RoleUser, Content: "hi"}}

		Update{}.Apply(s)

		assert.Equal(t, "ORD1001", s.OrderID)
		assert.Equal(t, "refund_request", s.IssueType)
		assert.Len(t, s.Messages, 1)
	})

	t.Run("pointer fields overwrite", func(t *testing.T) {
		s := NewState()
		s.OrderID = "ORD1001"

		Update{
			OrderID:   Ptr("ORD1002"),
			IssueType: Ptr("late_delivery"),
			Route:     Ptr(RouteResolve),
		}.Apply(s)

		assert.Equal(t, "ORD1002", s.OrderID)
		assert.Equal(t, "late_delivery", s.IssueType)
		assert.Equal(t, RouteResolve, s.Route)
	})

	t.Run("empty string pointer is an explicit overwrite", func(t *testing.T) {
		s := NewState()
		s.IssueType = "refund_request"

		Update{IssueType: Ptr("")}.Apply(s)
		assert.Empty(t, s.IssueType)
	})

	t.Run("clear flags express explicit null", func(t *testing.T) {
		s := NewState()
		s.OrderDetails = &Order{OrderID: "ORD1001"}
		s.CandidateOrders = []Order{{OrderID: "ORD1001"}}
		s.Scenario = ScenarioReply
		s.PolicyCitations = []PolicyCitation{{Source: "refund_policy.md"}}
		s.ReviewStatus = ReviewApproved

		Update{
			ClearOrderDetails:    true,
			ClearCandidateOrders: true,
			ClearScenario:        true,
			ClearPolicyCitations: true,
			ClearReviewStatus:    true,
		}.Apply(s)

		assert.Nil(t, s.OrderDetails)
		assert.Nil(t, s.CandidateOrders)
		assert.Empty(t, s.Scenario)
		assert.Nil(t, s.PolicyCitations)
		assert.Empty(t, s.ReviewStatus)
	})

	t.Run("append messages never rewrites the transcript", func(t *testing.T) {
		s := NewState()
		s.Messages = []Message{{Role: RoleUser, Content: "first"}}

		Update{AppendMessages: []Message{
			{Role: RoleAgent, Content: "second"},
		}}.Apply(s)

		assert.Len(t, s.Messages, 2)
		assert.Equal(t, "first", s.Messages[0].Content)
		assert.Equal(t, "second", s.Messages[1].Content)
	})
}

func TestStateHelpers(t *testing.T) {
	s := NewState()
	assert.False(t, s.IssueKnown())
	assert.False(t, s.OrderResolved())
	assert.Equal(t, "Customer", s.CustomerName())

	s.IssueType = IssueUnknown
	assert.False(t, s.IssueKnown(), "the explicit unknown type does not count as classified")

	s.IssueType = "refund_request"
	assert.True(t, s.IssueKnown())

	s.OrderDetails = &Order{OrderID: "ORD1001", CustomerName: "Alice Johnson"}
	assert.True(t, s.OrderResolved())
	assert.Equal(t, "Alice Johnson", s.CustomerName())
}

func TestNewStateView(t *testing.T) {
	s := NewState()
	s.OrderID = "ORD1001"
	s.PendingStep = StepAdminReview
	s.CandidateOrders = []Order{
		{OrderID: "ORD1001", Status: "delivered", Items: []OrderItem{{Name: "Wireless Headphones"}}},
	}

	v := NewStateView("t1", s)
	assert.Equal(t, "t1", v.ThreadID)
	assert.True(t, v.PendingReview)
	assert.Len(t, v.CandidateOrders, 1)
	assert.Equal(t, "Wireless Headphones", v.CandidateOrders[0].FirstItem)

	s.PendingStep = StepEnd
	assert.False(t, NewStateView("t1", s).PendingReview)
}
