package models

// RateRow is one row of the quote rate table: base pricing for an item
// within an inclusive quantity range under one discount tier, plus the
// item's additive surcharges.
type RateRow struct {
	Item         string `json:"item"`
	DiscountType string `json:"discount_type"`
	MinQty       int    `json:"min_qty"`
	MaxQty       int    `json:"max_qty"`
	UnitPrice    int    `json:"unit_price"`
	PosAdd       int    `json:"pos_add"`
	ColorAdd     int    `json:"color_add"`
	FullColorAdd int    `json:"fullcolor_add"`
}

// Matches reports whether the row covers (item, discountType, qty).
func (r *RateRow) Matches(item, discountType string, qty int) bool {
	return r.Item == item && r.DiscountType == discountType && r.MinQty <= qty && qty <= r.MaxQty
}

// PatternRateRow is one row of the pattern catalog price table used by
// the pattern estimate flow: a fixed unit price per (item, design
// pattern, quantity bucket, user type).
type PatternRateRow struct {
	Item          string `json:"item"`
	Pattern       string `json:"pattern"`
	QuantityRange string `json:"quantity_range"`
	UserType      string `json:"user_type"`
	UnitPrice     int    `json:"unit_price"`
}
