package policy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viridien/triage/pkg/adapters/policy"
	"github.com/viridien/triage/pkg/domain"
)

// keywordEmbedder is a deterministic embedder: each dimension is the count
// of one probe word, so cosine ranking is predictable.
type keywordEmbedder struct {
	probes []string
}

func (e *keywordEmbedder) embed(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(e.probes))
	for i, p := range e.probes {
		v[i] = float32(strings.Count(text, p))
	}
	return v
}

func (e *keywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

var testDocs = []policy.Doc{
	{Source: "refund_policy.md", Title: "Refund Policy", IssueTypes: []string{"refund_request"}, Content: "refund refund window"},
	{Source: "delivery_policy.md", Title: "Delivery Policy", IssueTypes: []string{"late_delivery"}, Content: "late delivery carrier"},
	{Source: "warranty_policy.md", Title: "Warranty Policy", IssueTypes: []string{"defective_product", "damaged_item"}, Content: "warranty replacement"},
	{Source: "fraud_policy.md", Title: "Fraud Prevention Policy", Content: "fraud verification escalate"},
}

func newTestRetriever(t *testing.T, opts ...policy.Option) *policy.Retriever {
	t.Helper()
	embedder := &keywordEmbedder{probes: []string{"refund", "late", "warranty", "fraud"}}
	r, err := policy.NewRetriever(context.Background(), embedder, testDocs, opts...)
	require.NoError(t, err)
	return r
}

func TestRetriever_PrimaryMapping(t *testing.T) {
	r := newTestRetriever(t)

	citations, err := r.Query(context.Background(), "refund_request", "customer wants a refund", nil, 3)
	require.NoError(t, err)
	require.Len(t, citations, 1, "only the primarily mapped document competes")
	assert.Equal(t, "refund_policy.md", citations[0].Source)
	assert.Equal(t, "Refund Policy", citations[0].Title)
	assert.Greater(t, citations[0].Score, float32(0))
}

func TestRetriever_UnmappedIssueFallsBackToAllDocs(t *testing.T) {
	r := newTestRetriever(t)

	citations, err := r.Query(context.Background(), "wrong_item", "late late late", nil, 2)
	require.NoError(t, err)
	require.Len(t, citations, 2, "topK bounds the fallback ranking")
	assert.Equal(t, "delivery_policy.md", citations[0].Source, "ranking follows similarity")
}

func TestRetriever_FraudPolicyCondition(t *testing.T) {
	r := newTestRetriever(t, policy.WithFraudPolicy("fraud_policy.md", []string{"refund_request"}, 80.0))
	ctx := context.Background()

	bigOrder := &domain.Order{OrderID: "ORD1001", TotalAmount: 250.00}
	smallOrder := &domain.Order{OrderID: "ORD1002", TotalAmount: 10.00}

	sources := func(cs []domain.PolicyCitation) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Source)
		}
		return out
	}

	t.Run("eligible issue over threshold includes fraud policy", func(t *testing.T) {
		citations, err := r.Query(ctx, "refund_request", "refund fraud", bigOrder, 3)
		require.NoError(t, err)
		assert.Contains(t, sources(citations), "fraud_policy.md")
		assert.Contains(t, sources(citations), "refund_policy.md")
	})

	t.Run("below threshold excludes fraud policy", func(t *testing.T) {
		citations, err := r.Query(ctx, "refund_request", "refund fraud", smallOrder, 3)
		require.NoError(t, err)
		assert.NotContains(t, sources(citations), "fraud_policy.md")
	})

	t.Run("ineligible issue excludes fraud policy", func(t *testing.T) {
		citations, err := r.Query(ctx, "late_delivery", "late fraud", bigOrder, 3)
		require.NoError(t, err)
		assert.NotContains(t, sources(citations), "fraud_policy.md")
	})

	t.Run("no order excludes fraud policy", func(t *testing.T) {
		citations, err := r.Query(ctx, "refund_request", "refund fraud", nil, 3)
		require.NoError(t, err)
		assert.NotContains(t, sources(citations), "fraud_policy.md")
	})
}

func TestRetriever_TopK(t *testing.T) {
	r := newTestRetriever(t)

	citations, err := r.Query(context.Background(), "unmapped_issue", "refund late warranty fraud", nil, 2)
	require.NoError(t, err)
	assert.Len(t, citations, 2)
}

func TestRetriever_NoDocs(t *testing.T) {
	embedder := &keywordEmbedder{probes: []string{"x"}}
	r, err := policy.NewRetriever(context.Background(), embedder, nil)
	require.NoError(t, err)

	citations, err := r.Query(context.Background(), "refund_request", "anything", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, citations)
}
