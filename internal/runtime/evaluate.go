package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/viridien/triage/pkg/domain"
)

const evaluateSystemContext = "You are a policy compliance checker for a " +
	"customer support team. Given a proposed action and the relevant policy " +
	"excerpts, decide whether the action complies. Respond with a single JSON " +
	"object of the form {\"evaluation\": \"<one-paragraph verdict>\", " +
	"\"applied_policies\": [{\"source\": \"...\", \"title\": \"...\", " +
	"\"cited_rule\": \"...\", \"compliance\": \"compliant|non_compliant|requires_review\"}]} " +
	"and nothing else."

const noCitationsEvaluation = "No policy citations were available for this issue."

// citationExcerptLimit bounds how much of each policy document is put into
// the evaluation prompt.
const citationExcerptLimit = 700

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type policyVerdict struct {
	Evaluation      string `json:"evaluation"`
	AppliedPolicies []struct {
		Source     string `json:"source"`
		Title      string `json:"title"`
		CitedRule  string `json:"cited_rule"`
		Compliance string `json:"compliance"`
	} `json:"applied_policies"`
}

// stepEvaluatePolicies checks the suggested action against the retrieved
// citations. The verdict comes from the text generator when one is wired;
// otherwise (or when its output is unusable) the step degrades to a
// deterministic requires_review verdict built from the citations themselves.
func (e *Engine) stepEvaluatePolicies(ctx context.Context, s *domain.State) (domain.Update, error) {
	if s.Scenario != domain.ScenarioReply {
		return domain.Update{}, nil
	}

	if len(s.PolicyCitations) == 0 {
		return domain.Update{
			PolicyEvaluation: domain.Ptr(noCitationsEvaluation),
			AppliedPolicies:  []domain.AppliedPolicy{},
			SuggestedAction:  domain.Ptr(s.SuggestedAction + "\n\nPolicy evaluation: " + noCitationsEvaluation),
		}, nil
	}

	evaluation, applied := e.evaluateWithGenerator(ctx, s)
	if evaluation == "" {
		evaluation, applied = fallbackVerdict(s.PolicyCitations)
	}

	action := s.SuggestedAction + "\n\nPolicy evaluation: " + evaluation
	if sources := appliedSources(applied); len(sources) > 0 {
		action += "\nApplied policies: " + strings.Join(sources, ", ")
	}

	return domain.Update{
		PolicyEvaluation: &evaluation,
		AppliedPolicies:  applied,
		SuggestedAction:  &action,
	}, nil
}

// evaluateWithGenerator asks the generator for a verdict and parses it.
// Returns an empty evaluation when no usable verdict could be obtained.
func (e *Engine) evaluateWithGenerator(ctx context.Context, s *domain.State) (string, []domain.AppliedPolicy) {
	if e.generator == nil {
		return "", nil
	}

	payload, err := json.Marshal(citationPayload(s.PolicyCitations))
	if err != nil {
		return "", nil
	}
	userContext := fmt.Sprintf("Proposed action: %s\nIssue type: %s\n\nPolicy excerpts:\n%s", s.SuggestedAction, s.IssueType, payload)

	out, err := e.generator.Generate(ctx, evaluateSystemContext, userContext)
	if err != nil {
		e.logger.Warn("policy evaluation generation failed, using fallback verdict", "err", err)
		return "", nil
	}

	verdict, err := parseVerdict(out)
	if err != nil {
		e.logger.Warn("unparseable policy verdict, using fallback", "err", err)
		return "", nil
	}

	applied := make([]domain.AppliedPolicy, 0, len(verdict.AppliedPolicies))
	for _, p := range verdict.AppliedPolicies {
		applied = append(applied, domain.AppliedPolicy{
			Source:     p.Source,
			Title:      p.Title,
			CitedRule:  p.CitedRule,
			Compliance: p.Compliance,
		})
	}
	return strings.TrimSpace(verdict.Evaluation), applied
}

// parseVerdict decodes model output that is supposed to be a JSON object but
// in practice arrives wrapped in prose or markdown fences, or with minor
// syntax damage. Strict parse first, then repair, then a last-ditch extraction
// of the outermost object.
func parseVerdict(raw string) (*policyVerdict, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if repaired, err := jsonrepair.JSONRepair(raw); err == nil {
		candidates = append(candidates, repaired)
	}
	if m := jsonObjectPattern.FindString(raw); m != "" {
		candidates = append(candidates, m)
		if repaired, err := jsonrepair.JSONRepair(m); err == nil {
			candidates = append(candidates, repaired)
		}
	}

	var lastErr error
	for _, c := range candidates {
		var v policyVerdict
		if err := json.Unmarshal([]byte(c), &v); err != nil {
			lastErr = err
			continue
		}
		if strings.TrimSpace(v.Evaluation) == "" {
			lastErr = fmt.Errorf("verdict missing evaluation text")
			continue
		}
		return &v, nil
	}
	return nil, lastErr
}

// fallbackVerdict builds a deterministic requires_review verdict straight
// from the citations when no generator verdict is available.
func fallbackVerdict(citations []domain.PolicyCitation) (string, []domain.AppliedPolicy) {
	applied := make([]domain.AppliedPolicy, 0, len(citations))
	for _, c := range citations {
		applied = append(applied, domain.AppliedPolicy{
			Source:     c.Source,
			Title:      c.Title,
			CitedRule:  firstRuleLine(c.Content),
			Compliance: "requires_review",
		})
	}
	evaluation := fmt.Sprintf("Automated evaluation unavailable; %d relevant policy document(s) were retrieved and should be reviewed manually.", len(citations))
	return evaluation, applied
}

func citationPayload(citations []domain.PolicyCitation) []map[string]string {
	payload := make([]map[string]string, 0, len(citations))
	for _, c := range citations {
		content := c.Content
		if len(content) > citationExcerptLimit {
			content = content[:citationExcerptLimit]
		}
		payload = append(payload, map[string]string{
			"source":  c.Source,
			"title":   c.Title,
			"content": content,
		})
	}
	return payload
}

// firstRuleLine returns the first non-empty, non-heading line of a policy
// document, which in our corpus is the leading rule statement.
func firstRuleLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}

// appliedSources returns the sorted, de-duplicated policy sources.
func appliedSources(applied []domain.AppliedPolicy) []string {
	seen := make(map[string]struct{}, len(applied))
	var sources []string
	for _, p := range applied {
		if p.Source == "" {
			continue
		}
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	}
	sort.Strings(sources)
	return sources
}
