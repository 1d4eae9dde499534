package domain

// ClassificationRule maps a keyword substring to an issue type.
// Lower Priority wins; ties are broken by keyword length (longer wins).
type ClassificationRule struct {
	Keyword   string `json:"keyword" yaml:"keyword"`
	IssueType string `json:"issue_type" yaml:"issue_type"`
	Priority  int    `json:"priority" yaml:"priority"`
}

// ActionTemplate produces the suggested action for an issue type.
// Templates may reference {{customer_name}} and {{order_id}}.
type ActionTemplate struct {
	IssueType string `json:"issue_type" yaml:"issue_type"`
	Template  string `json:"template" yaml:"template"`
}

// PolicyCitation is a ranked snippet returned by the policy retriever.
type PolicyCitation struct {
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float32 `json:"score,omitempty"`
}

// AppliedPolicy records how a policy was applied to the suggested action.
type AppliedPolicy struct {
	Source     string `json:"source"`
	Title      string `json:"title"`
	CitedRule  string `json:"cited_rule"`
	Compliance string `json:"compliance"` // compliant | non_compliant | requires_review
}
