package middleware

import (
	"context"
	"regexp"

	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
)

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks matches of the patterns in
// persisted free text: the raw ticket text, admin feedback, and the message
// transcript. Structured fields the engine routes on (the email identifier,
// order details) are left intact. Masking is applied to a copy; the in-memory
// state the engine keeps working with is not modified.
//
// Masking is lossy by design. The engine never re-reads masked text for
// routing: ticket text is replaced by the next turn's input and messages are
// append-only.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, threadID string, state *domain.State) error {
	cloned := *state
	cloned.TicketText = m.mask(state.TicketText)
	cloned.AdminFeedback = m.mask(state.AdminFeedback)

	cloned.Messages = make([]domain.Message, len(state.Messages))
	for i, msg := range state.Messages {
		cloned.Messages[i] = domain.Message{
			Role:    msg.Role,
			Content: m.mask(msg.Content),
		}
	}

	return m.next.Save(ctx, threadID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, threadID string) (*domain.State, error) {
	return m.next.Load(ctx, threadID)
}

func (m *piiMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, "***")
	}
	return text
}
