// Package policy implements the vector-based policy retrieval collaborator:
// a small embedding index over markdown policy documents, filtered by a
// primary issue-type mapping with a conditional fraud policy.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/pkg/domain"
)

// Retriever implements ports.PolicyRetriever with cosine similarity over
// document embeddings computed once at construction time.
type Retriever struct {
	embedder embeddings.Embedder
	docs     []Doc
	vectors  [][]float32

	fraudSource    string
	fraudEligible  map[string]bool
	fraudThreshold float64

	logger *slog.Logger
}

// Option configures the Retriever.
type Option func(*Retriever)

// WithFraudPolicy marks one document as conditionally selected: it is added
// to the candidate set only for eligible issue types on orders at or above
// the amount threshold, regardless of primary mapping.
func WithFraudPolicy(source string, eligibleIssueTypes []string, threshold float64) Option {
	return func(r *Retriever) {
		r.fraudSource = source
		r.fraudEligible = make(map[string]bool, len(eligibleIssueTypes))
		for _, it := range eligibleIssueTypes {
			r.fraudEligible[it] = true
		}
		r.fraudThreshold = threshold
	}
}

// WithLogger sets the retriever logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// NewRetriever embeds all documents and returns a ready retriever.
func NewRetriever(ctx context.Context, embedder embeddings.Embedder, docs []Doc, opts ...Option) (*Retriever, error) {
	r := &Retriever{
		embedder: embedder,
		docs:     docs,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Title + "\n" + d.Content
	}

	if len(texts) > 0 {
		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed policy docs: %w", err)
		}
		if len(vectors) != len(docs) {
			return nil, fmt.Errorf("embed policy docs: got %d vectors for %d docs", len(vectors), len(docs))
		}
		r.vectors = vectors
	}

	return r, nil
}

// Query returns up to topK citations ranked by similarity to the query.
// Candidates are the documents primarily mapped to the issue type, plus the
// fraud policy when its amount condition holds; when nothing is mapped, all
// documents compete.
func (r *Retriever) Query(ctx context.Context, issueType, query string, order *domain.Order, topK int) ([]domain.PolicyCitation, error) {
	candidates := r.candidates(issueType, order)
	if len(candidates) == 0 {
		return nil, nil
	}

	qv, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		idx   int
		score float32
	}
	ranked := make([]scored, 0, len(candidates))
	for _, i := range candidates {
		ranked = append(ranked, scored{idx: i, score: cosine(qv, r.vectors[i])})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	citations := make([]domain.PolicyCitation, 0, len(ranked))
	for _, s := range ranked {
		d := r.docs[s.idx]
		citations = append(citations, domain.PolicyCitation{
			Source:  d.Source,
			Title:   d.Title,
			Content: d.Content,
			Score:   s.score,
		})
	}

	r.logger.Debug("policy retrieval", "issue_type", issueType, "candidates", len(candidates), "returned", len(citations))
	return citations, nil
}

// candidates returns the indexes of documents eligible for the issue type.
func (r *Retriever) candidates(issueType string, order *domain.Order) []int {
	var primary []int
	for i, d := range r.docs {
		for _, it := range d.IssueTypes {
			if it == issueType {
				primary = append(primary, i)
				break
			}
		}
	}

	if r.fraudSource != "" && r.fraudEligible[issueType] && order != nil && order.TotalAmount >= r.fraudThreshold {
		for i, d := range r.docs {
			if d.Source == r.fraudSource && !contains(primary, i) {
				primary = append(primary, i)
			}
		}
	}

	if len(primary) > 0 {
		return primary
	}

	all := make([]int, len(r.docs))
	for i := range r.docs {
		all[i] = i
	}
	return all
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
