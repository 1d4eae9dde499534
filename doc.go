/*
Package triage is a workflow engine for customer-support ticket triage with a
human admin in the loop.

Each conversation thread runs a fixed pipeline of typed processing steps:
ingest the ticket, classify the issue, resolve the customer's order, prepare a
suggested action, check it against policy, and draft a reply. Issue-bearing
tickets suspend right before the admin review step; the thread persists in a
state store until a reviewer approves, rejects, or requests changes, and then
resumes exactly where it stopped.

State is durable and per-thread. Follow-up turns on the same thread reuse what
earlier turns already established (the classified issue, the resolved order),
skipping the corresponding steps via a pure routing decision.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/viridien/triage"
		"github.com/viridien/triage/pkg/adapters/memory"
		"github.com/viridien/triage/pkg/domain"
	)

	func main() {
		eng := triage.New(
			triage.WithOrderStore(memory.NewOrderStore([]domain.Order{
				{OrderID: "ORD1001", CustomerName: "Ada", Email: "ada@example.com", Status: "delivered"},
			})),
			triage.WithRules([]domain.ClassificationRule{
				{Keyword: "refund", IssueType: "refund_request", Priority: 1},
			}),
		)

		ctx := context.Background()

		// User turn: suspends for admin review.
		view, err := eng.Triage(ctx, "", "I want a refund for ORD1001", "")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(view.PendingReview) // true

		// Admin decision: resumes and finalizes the thread.
		view, err = eng.Review(ctx, view.ThreadID, domain.ReviewApproved, "")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(view.Messages[len(view.Messages)-1].Content) // "[APPROVED] ..."
	}

By default state lives in memory; wire the redis adapter for durability across
restarts, and the llm adapter to phrase replies with a language model instead
of the deterministic templates.
*/
package triage
