package models

import "errors"

// Domain sentinels shared by repositories and the pricing engine.
var (
	// ErrSessionNotFound: no in-progress session exists for the user.
	ErrSessionNotFound = errors.New("quote session not found")

	// ErrRateNotFound: no rate row covers (item, discount tier, quantity).
	ErrRateNotFound = errors.New("no applicable rate row")

	// ErrPatternRateNotFound: no pattern price row covers the selection.
	ErrPatternRateNotFound = errors.New("no applicable pattern rate row")

	// ErrQuoteNotFound: no ledger row carries the quote number.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrOrderNotFound: no ledger row carries the order number.
	ErrOrderNotFound = errors.New("order not found")
)
