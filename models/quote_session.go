// Package models contains domain entities and business models for the quote bot
package models

import (
	"time"
)

// Answer field names shared by the flow definitions, the pricing engine
// and the ledger rows.
const (
	FieldUserType      = "user_type"
	FieldUsageDate     = "usage_date"
	FieldDiscountType  = "discount_type"
	FieldBudget        = "budget"
	FieldItem          = "item"
	FieldPattern       = "pattern"
	FieldQuantity      = "quantity"
	FieldPrintPosition = "print_position"
	FieldColorCount    = "color_count"
	FieldBackName      = "back_name"
)

// Discount tiers derived from the usage-date answer.
const (
	DiscountEarly    = "早割"
	DiscountStandard = "通常"
)

// QuoteSession is the per-user state of an in-progress estimate
// conversation. Step 0 means no active session; steps 1..N index the
// flow's questions in order. Answers accumulate monotonically: a field
// written once is never overwritten within the same session.
type QuoteSession struct {
	UserID    string            `json:"user_id"`
	FlowID    string            `json:"flow_id"`
	Step      int               `json:"step"`
	Answers   map[string]string `json:"answers"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewQuoteSession creates a step-1 session with an empty answer set.
func NewQuoteSession(userID, flowID string, now time.Time) *QuoteSession {
	return &QuoteSession{
		UserID:    userID,
		FlowID:    flowID,
		Step:      1,
		Answers:   map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetAnswer records a field value. The first write wins; later writes
// to the same field are ignored.
func (s *QuoteSession) SetAnswer(field, value string) {
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	if _, ok := s.Answers[field]; ok {
		return
	}
	s.Answers[field] = value
}

// Answer returns a recorded field value, or "" when unset.
func (s *QuoteSession) Answer(field string) string {
	return s.Answers[field]
}

// IsIdle reports whether the session has seen no activity for longer
// than ttl.
func (s *QuoteSession) IsIdle(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > ttl
}

// Clone returns a deep copy so stored state is never aliased by callers.
func (s *QuoteSession) Clone() *QuoteSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	return &cp
}
