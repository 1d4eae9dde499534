package ports

import (
	"context"

	"github.com/viridien/triage/pkg/domain"
)

// OrderStore is the external order system the resolution step consults.
type OrderStore interface {
	// FetchByID returns the order with the given id, or
	// domain.ErrOrderNotFound.
	FetchByID(ctx context.Context, orderID string) (*domain.Order, error)

	// SearchByEmail returns all orders whose email matches, compared
	// case-insensitively. An empty slice is a valid result.
	SearchByEmail(ctx context.Context, email string) ([]domain.Order, error)
}

// TextGenerator is the text-generation collaborator used by the drafting and
// policy-evaluation steps. Callers are expected to catch failures and degrade
// to deterministic fallbacks rather than abort the turn.
type TextGenerator interface {
	Generate(ctx context.Context, systemContext, userContext string) (string, error)
}

// PolicyRetriever returns ranked policy citations relevant to a proposed
// action. An empty result is not an error; the engine degrades to an explicit
// "no citations available" note.
type PolicyRetriever interface {
	Query(ctx context.Context, issueType, query string, order *domain.Order, topK int) ([]domain.PolicyCitation, error)
}
