package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ymgch/mitsumori/models"
)

// RateTable is the quote rate table, loaded once at startup and
// read-only afterwards. Rows for the same (item, discount tier) must
// form contiguous, non-overlapping quantity ranges; violations fail the
// load so a broken table can never serve half-right prices.
type RateTable struct {
	rows []models.RateRow
}

// NewRateTable validates the rows and builds a table over them.
func NewRateTable(rows []models.RateRow) (*RateTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("rate table has no rows")
	}

	grouped := make(map[string][]models.RateRow)
	for i, row := range rows {
		if row.Item == "" || row.DiscountType == "" {
			return nil, fmt.Errorf("rate table row %d is missing item or discount type", i)
		}
		if row.MinQty <= 0 || row.MaxQty < row.MinQty {
			return nil, fmt.Errorf("rate table %s/%s: invalid range %d-%d", row.Item, row.DiscountType, row.MinQty, row.MaxQty)
		}
		if row.UnitPrice <= 0 {
			return nil, fmt.Errorf("rate table %s/%s %d-%d: unit price must be positive", row.Item, row.DiscountType, row.MinQty, row.MaxQty)
		}
		if row.PosAdd < 0 || row.ColorAdd < 0 || row.FullColorAdd < 0 {
			return nil, fmt.Errorf("rate table %s/%s %d-%d: negative surcharge", row.Item, row.DiscountType, row.MinQty, row.MaxQty)
		}
		key := row.Item + "|" + row.DiscountType
		grouped[key] = append(grouped[key], row)
	}

	for key, group := range grouped {
		sort.Slice(group, func(i, j int) bool { return group[i].MinQty < group[j].MinQty })
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if cur.MinQty != prev.MaxQty+1 {
				return nil, fmt.Errorf("rate table %s: range %d-%d does not continue %d-%d", key, cur.MinQty, cur.MaxQty, prev.MinQty, prev.MaxQty)
			}
		}
	}

	return &RateTable{rows: rows}, nil
}

// LoadRateTable reads and validates a JSON rate table file.
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table %s: %w", path, err)
	}

	var rows []models.RateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rate table %s: %w", path, err)
	}
	return NewRateTable(rows)
}

// Find returns the row covering (item, discountType, qty), or
// models.ErrRateNotFound.
func (t *RateTable) Find(item, discountType string, qty int) (*models.RateRow, error) {
	for i := range t.rows {
		if t.rows[i].Matches(item, discountType, qty) {
			row := t.rows[i]
			return &row, nil
		}
	}
	return nil, models.ErrRateNotFound
}

// Len reports the number of loaded rows.
func (t *RateTable) Len() int {
	return len(t.rows)
}

// PatternRateTable is the fixed-design catalog price table for the
// pattern estimate flow.
type PatternRateTable struct {
	rows []models.PatternRateRow
}

// NewPatternRateTable validates the rows and builds a table over them.
func NewPatternRateTable(rows []models.PatternRateRow) (*PatternRateTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("pattern rate table has no rows")
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if row.Item == "" || row.Pattern == "" || row.QuantityRange == "" || row.UserType == "" {
			return nil, fmt.Errorf("pattern rate table row %d has empty key fields", i)
		}
		if row.UnitPrice <= 0 {
			return nil, fmt.Errorf("pattern rate table %s/%s/%s/%s: unit price must be positive", row.Item, row.Pattern, row.QuantityRange, row.UserType)
		}
		key := row.Item + "|" + row.Pattern + "|" + row.QuantityRange + "|" + row.UserType
		if seen[key] {
			return nil, fmt.Errorf("pattern rate table has duplicate row for %s", key)
		}
		seen[key] = true
	}

	return &PatternRateTable{rows: rows}, nil
}

// LoadPatternRateTable reads and validates a JSON pattern price file.
func LoadPatternRateTable(path string) (*PatternRateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern rate table %s: %w", path, err)
	}

	var rows []models.PatternRateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse pattern rate table %s: %w", path, err)
	}
	return NewPatternRateTable(rows)
}

// Find returns the row for the exact (item, pattern, quantity bucket,
// user type) key, or models.ErrPatternRateNotFound.
func (t *PatternRateTable) Find(item, pattern, quantityRange, userType string) (*models.PatternRateRow, error) {
	for i := range t.rows {
		r := &t.rows[i]
		if r.Item == item && r.Pattern == pattern && r.QuantityRange == quantityRange && r.UserType == userType {
			row := *r
			return &row, nil
		}
	}
	return nil, models.ErrPatternRateNotFound
}

// Len reports the number of loaded rows.
func (t *PatternRateTable) Len() int {
	return len(t.rows)
}
