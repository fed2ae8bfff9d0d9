package models

// QuoteResult is the itemized outcome of one pricing computation.
// Derived, never stored: the engine recomputes it from answers every
// time. All amounts are integer yen.
//
// ColorFee is the full color-related surcharge as charged; OptionInkFee
// and FullColorFee break out its option-ink and full-color components
// for the order summary (both zero in the simple quote flow, where the
// color map folds everything into ColorFee).
type QuoteResult struct {
	Item          string `json:"item"`
	DiscountType  string `json:"discount_type"`
	QuantityLabel string `json:"quantity_label"`
	Quantity      int    `json:"quantity"`

	BaseUnit     int `json:"base_unit"`
	PositionFee  int `json:"position_fee"`
	ColorFee     int `json:"color_fee"`
	OptionInkFee int `json:"option_ink_fee"`
	FullColorFee int `json:"fullcolor_fee"`
	BackNameFee  int `json:"back_name_fee"`

	UnitPrice  int `json:"unit_price"`
	TotalPrice int `json:"total_price"`
}

// IsZero reports the legacy "no applicable rate" soft signal: every
// amount zero.
func (r *QuoteResult) IsZero() bool {
	return r.BaseUnit == 0 && r.PositionFee == 0 && r.ColorFee == 0 &&
		r.BackNameFee == 0 && r.UnitPrice == 0 && r.TotalPrice == 0
}

// QuoteRow is one 簡易見積 ledger row, in sheet column order.
type QuoteRow struct {
	Timestamp     string `json:"timestamp"`
	QuoteNumber   string `json:"quote_number"`
	UserID        string `json:"user_id"`
	UserType      string `json:"user_type"`
	UsageLabel    string `json:"usage_label"`
	Budget        string `json:"budget"`
	Item          string `json:"item"`
	Quantity      string `json:"quantity"`
	PrintPosition string `json:"print_position"`
	ColorCount    string `json:"color_count"`
	BackName      string `json:"back_name"`
	TotalPrice    string `json:"total_price"`
	UnitPrice     string `json:"unit_price"`
	OrderFormURL  string `json:"order_form_url"`
}

// Values returns the row cells in header order.
func (r QuoteRow) Values() []any {
	return []any{
		r.Timestamp, r.QuoteNumber, r.UserID, r.UserType,
		r.UsageLabel, r.Budget, r.Item, r.Quantity,
		r.PrintPosition, r.ColorCount, r.BackName,
		r.TotalPrice, r.UnitPrice, r.OrderFormURL,
	}
}
