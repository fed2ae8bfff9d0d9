package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ymgch/mitsumori/models"
)

// RateLookup is the slice of the rate table the engine needs.
type RateLookup interface {
	Find(item, discountType string, qty int) (*models.RateRow, error)
}

// PatternRateLookup resolves pattern catalog prices.
type PatternRateLookup interface {
	Find(item, pattern, quantityRange, userType string) (*models.PatternRateRow, error)
}

// Engine prices completed answer sets against the loaded rate tables.
type Engine struct {
	rates        RateLookup
	patternRates PatternRateLookup
}

// NewEngine creates a pricing engine over the given lookups.
func NewEngine(rates RateLookup, patternRates PatternRateLookup) *Engine {
	return &Engine{
		rates:        rates,
		patternRates: patternRates,
	}
}

// Price computes the quote for a completed standard-flow answer set.
//
// A missing rate row returns models.ErrRateNotFound rather than the
// legacy all-zero result; callers wanting the old contract use
// PriceOrZero.
func (e *Engine) Price(answers map[string]string) (*models.QuoteResult, error) {
	item := answers[models.FieldItem]
	label, qty := resolveQuantity(answers[models.FieldQuantity])
	discountType := discountTier(answers)

	row, err := e.rates.Find(item, discountType, qty)
	if err != nil {
		return nil, fmt.Errorf("price %s/%s/%d: %w", item, discountType, qty, err)
	}

	positionFee := 0
	if answers[models.FieldPrintPosition] == "前と背中" {
		// Both sides count as exactly one extra position here; the
		// order-form engine itemizes per declared position instead.
		positionFee = row.PosAdd
	}

	colorFee := 0
	fullColorFee := 0
	if cost, ok := ColorCostFor(answers[models.FieldColorCount]); ok {
		fullColorFee = cost.Full * row.FullColorAdd
		colorFee = cost.Flat*row.ColorAdd + fullColorFee
	}

	backNameFee := BackNameFees[answers[models.FieldBackName]]

	unit := row.UnitPrice + positionFee + colorFee + backNameFee

	return &models.QuoteResult{
		Item:          item,
		DiscountType:  discountType,
		QuantityLabel: label,
		Quantity:      qty,
		BaseUnit:      row.UnitPrice,
		PositionFee:   positionFee,
		ColorFee:      colorFee,
		FullColorFee:  fullColorFee,
		BackNameFee:   backNameFee,
		UnitPrice:     unit,
		TotalPrice:    unit * qty,
	}, nil
}

// PriceOrZero is the legacy contract: a missing rate row yields an
// all-zero result instead of an error.
func (e *Engine) PriceOrZero(answers map[string]string) *models.QuoteResult {
	result, err := e.Price(answers)
	if err == nil {
		return result
	}
	label, qty := resolveQuantity(answers[models.FieldQuantity])
	return &models.QuoteResult{
		Item:          answers[models.FieldItem],
		DiscountType:  discountTier(answers),
		QuantityLabel: label,
		Quantity:      qty,
	}
}

// PricePattern computes the quote for a completed pattern-flow answer
// set: a direct unit-price lookup by (item, pattern, quantity bucket,
// user type), no surcharges.
func (e *Engine) PricePattern(answers map[string]string) (*models.QuoteResult, error) {
	if e.patternRates == nil {
		return nil, errors.New("pattern rate table not loaded")
	}

	item := answers[models.FieldItem]
	pattern := normalizePattern(answers[models.FieldPattern])
	userType := answers[models.FieldUserType]
	if userType == "" {
		userType = "一般"
	}
	label, qty := resolveQuantity(answers[models.FieldQuantity])

	row, err := e.patternRates.Find(item, pattern, BracketForQuantity(qty), userType)
	if err != nil {
		return nil, fmt.Errorf("pattern price %s/%s/%s: %w", item, pattern, label, err)
	}

	return &models.QuoteResult{
		Item:          item,
		DiscountType:  discountTier(answers),
		QuantityLabel: label,
		Quantity:      qty,
		BaseUnit:      row.UnitPrice,
		UnitPrice:     row.UnitPrice,
		TotalPrice:    row.UnitPrice * qty,
	}, nil
}

// PricePatternOrZero applies the PriceOrZero soft-failure contract to
// the pattern flow: a missing price row yields an all-zero result.
func (e *Engine) PricePatternOrZero(answers map[string]string) *models.QuoteResult {
	result, err := e.PricePattern(answers)
	if err == nil {
		return result
	}
	label, qty := resolveQuantity(answers[models.FieldQuantity])
	return &models.QuoteResult{
		Item:          answers[models.FieldItem],
		DiscountType:  discountTier(answers),
		QuantityLabel: label,
		Quantity:      qty,
	}
}

// resolveQuantity turns a quantity answer into (normalized label,
// representative count). Bucket labels map directly; bare numbers are
// bracketed, rounding counts below the smallest bracket up into it.
// Anything unparseable keeps the original fallback count of 1.
func resolveQuantity(answer string) (string, int) {
	label := NormalizeQuantityLabel(answer)
	if qty, ok := quantityValues[label]; ok {
		return label, qty
	}
	if n, err := strconv.Atoi(label); err == nil && n > 0 {
		bracket := BracketForQuantity(n)
		return bracket, quantityValues[bracket]
	}
	return label, 1
}

// discountTier reads the derived tier, falling back to deriving it from
// the raw usage-date answer.
func discountTier(answers map[string]string) string {
	if t := answers[models.FieldDiscountType]; t != "" {
		return t
	}
	if answers[models.FieldUsageDate] == "14日目以降" {
		return models.DiscountEarly
	}
	return models.DiscountStandard
}

// normalizePattern strips the パターン prefix (パターンA -> A).
func normalizePattern(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(raw, "パターン"))
}
