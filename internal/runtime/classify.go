package runtime

import (
	"fmt"
	"strings"

	"github.com/viridien/triage/pkg/domain"
)

// Classify scans the rule table for keywords contained in the lower-cased
// ticket text and returns the winning issue type plus a short evidence note.
//
// The tie-break is a deterministic total order: lowest priority wins, then
// the longer keyword (more specific match), then the lexicographically
// smaller keyword. No match yields the explicit "unknown" issue type.
func Classify(rules []domain.ClassificationRule, ticketText string) (issueType, evidence string) {
	text := strings.ToLower(ticketText)

	var best *domain.ClassificationRule
	for i := range rules {
		rule := &rules[i]
		if rule.Keyword == "" || !strings.Contains(text, strings.ToLower(rule.Keyword)) {
			continue
		}
		if best == nil || better(rule, best) {
			best = rule
		}
	}

	if best == nil {
		return domain.IssueUnknown, "no classification keywords matched"
	}
	return best.IssueType, fmt.Sprintf("matched keyword %q (priority %d)", best.Keyword, best.Priority)
}

// better reports whether a should win over b.
func better(a, b *domain.ClassificationRule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if len(a.Keyword) != len(b.Keyword) {
		return len(a.Keyword) > len(b.Keyword)
	}
	return a.Keyword < b.Keyword
}
