package domain

import "errors"

// ErrThreadNotFound is returned when a thread id cannot be found in the store.
var ErrThreadNotFound = errors.New("thread not found")

// ErrOrderNotFound is returned by order stores when a lookup by id misses.
var ErrOrderNotFound = errors.New("order not found")

// ErrNoPendingReview is returned when a review decision is submitted for a
// thread that is not suspended at the admin-review checkpoint.
var ErrNoPendingReview = errors.New("no pending review for thread")

// ErrEmptyTicket is returned when a turn arrives without ticket text.
var ErrEmptyTicket = errors.New("ticket text is required")

// ErrInvalidReviewStatus is returned when a review decision carries a status
// the checkpoint does not accept.
var ErrInvalidReviewStatus = errors.New("invalid review status")

// ErrUnknownStep is returned when the executor is pointed at a step that is
// not registered.
var ErrUnknownStep = errors.New("unknown step")
