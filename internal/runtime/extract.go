package runtime

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultOrderIDPrefix matches order ids like ORD1001.
const defaultOrderIDPrefix = "ORD"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Extractor pulls customer identifiers out of raw ticket text.
type Extractor struct {
	orderID *regexp.Regexp
}

// NewExtractor builds an extractor for order ids with the given alphabetic
// prefix followed by four digits. Matching is case-insensitive.
func NewExtractor(prefix string) (*Extractor, error) {
	if prefix == "" {
		prefix = defaultOrderIDPrefix
	}
	re, err := regexp.Compile(`(?i)\b(` + regexp.QuoteMeta(prefix) + `\d{4})\b`)
	if err != nil {
		return nil, fmt.Errorf("order id pattern: %w", err)
	}
	return &Extractor{orderID: re}, nil
}

// OrderID returns the first order id in the text normalized to uppercase,
// or "" when none is present.
func (e *Extractor) OrderID(text string) string {
	m := e.orderID.FindString(text)
	if m == "" {
		return ""
	}
	return strings.ToUpper(m)
}

// Email returns the first email address in the text normalized to lowercase,
// or "" when none is present.
func (e *Extractor) Email(text string) string {
	m := emailPattern.FindString(text)
	if m == "" {
		return ""
	}
	return strings.ToLower(m)
}
