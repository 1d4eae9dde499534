package middleware_test

import (
	"context"
	"testing"

	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	// Mask email addresses and US phone numbers in free text.
	mw := middleware.NewPIIMiddleware([]string{
		`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
		`\d{3}-\d{3}-\d{4}`,
	})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	threadID := "pii-thread"
	state := domain.NewState()
	state.TicketText = "Refund please, reach me at alice@example.com or 555-123-4567"
	state.Email = "alice@example.com"
	state.Messages = []domain.Message{
		{Role: domain.RoleUser, Content: "my email is alice@example.com"},
		{Role: domain.RoleAgent, Content: "Thanks, we found your order."},
	}

	// 1. Save
	if err := secureStore.Save(ctx, threadID, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify in-memory state is NOT modified (immutability check)
	if state.TicketText != "Refund please, reach me at alice@example.com or 555-123-4567" {
		t.Error("Middleware modified original state in memory!")
	}
	if state.Messages[0].Content != "my email is alice@example.com" {
		t.Error("Middleware modified original transcript in memory!")
	}

	// 2. Load from the underlying store (should be masked)
	storedState, err := underlyingStore.Load(ctx, threadID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if storedState.TicketText != "Refund please, reach me at *** or ***" {
		t.Errorf("Ticket text should be masked, got: %q", storedState.TicketText)
	}
	if storedState.Messages[0].Content != "my email is ***" {
		t.Errorf("Transcript should be masked, got: %q", storedState.Messages[0].Content)
	}
	if storedState.Messages[1].Content != "Thanks, we found your order." {
		t.Errorf("Clean transcript entries shouldn't change, got: %q", storedState.Messages[1].Content)
	}
	// The structured email identifier stays intact for order resolution.
	if storedState.Email != "alice@example.com" {
		t.Errorf("Structured email field shouldn't be masked, got: %q", storedState.Email)
	}
}
