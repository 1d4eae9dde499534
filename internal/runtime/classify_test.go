package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viridien/triage/pkg/domain"
)

func TestClassify(t *testing.T) {
	rules := []domain.ClassificationRule{
		{Keyword: "charge", IssueType: "payment_issue", Priority: 2},
		{Keyword: "duplicate charge", IssueType: "duplicate_charge", Priority: 1},
		{Keyword: "refund", IssueType: "refund_request", Priority: 2},
		{Keyword: "broken", IssueType: "damaged_item", Priority: 3},
	}

	t.Run("matches case-insensitively", func(t *testing.T) {
		issue, evidence := Classify(rules, "I want a REFUND now")
		assert.Equal(t, "refund_request", issue)
		assert.Contains(t, evidence, `"refund"`)
	})

	t.Run("lower priority wins", func(t *testing.T) {
		// "duplicate charge" contains "charge"; both match, priority 1 wins.
		issue, _ := Classify(rules, "I see a duplicate charge on my card")
		assert.Equal(t, "duplicate_charge", issue)
	})

	t.Run("longer keyword wins on equal priority", func(t *testing.T) {
		rules := []domain.ClassificationRule{
			{Keyword: "charge", IssueType: "payment_issue", Priority: 1},
			{Keyword: "duplicate charge", IssueType: "duplicate_charge", Priority: 1},
		}
		issue, _ := Classify(rules, "there is a duplicate charge here")
		assert.Equal(t, "duplicate_charge", issue)
	})

	t.Run("lexicographic tie-break is deterministic", func(t *testing.T) {
		rules := []domain.ClassificationRule{
			{Keyword: "beta", IssueType: "b_issue", Priority: 1},
			{Keyword: "alfa", IssueType: "a_issue", Priority: 1},
		}
		issue, _ := Classify(rules, "alfa beta")
		assert.Equal(t, "a_issue", issue)
	})

	t.Run("no match yields the explicit unknown type", func(t *testing.T) {
		issue, evidence := Classify(rules, "hello there")
		assert.Equal(t, domain.IssueUnknown, issue)
		assert.Equal(t, "no classification keywords matched", evidence)
	})

	t.Run("empty rule table", func(t *testing.T) {
		issue, _ := Classify(nil, "refund please")
		assert.Equal(t, domain.IssueUnknown, issue)
	})
}
