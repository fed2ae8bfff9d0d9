// Package pricing computes quote prices from completed answer sets.
// All amounts are integer yen; every function here is pure.
package pricing

import "strings"

// ColorCost is the surcharge multiplier pair a color-count choice maps
// to: Flat extra flat-color prints and Full extra full-color prints.
type ColorCost struct {
	Flat int
	Full int
}

// Color-count choices when printing a single side (前のみ / 背中のみ).
var colorCostSingle = map[string]ColorCost{
	"前 or 背中 1色":    {0, 0},
	"前 or 背中 2色":    {1, 0},
	"前 or 背中 フルカラー": {0, 1},
}

// Color-count choices when printing both sides (前と背中).
var colorCostBoth = map[string]ColorCost{
	"前と背中 前1色 背中1色": {0, 0},
	"前と背中 前2色 背中1色": {1, 0},
	"前と背中 前1色 背中2色": {1, 0},
	"前と背中 前2色 背中2色": {2, 0},
	"前と背中 フルカラー":    {0, 2},
}

// ColorChoicesSingle lists the single-side color-count options in
// prompt order.
var ColorChoicesSingle = []string{
	"前 or 背中 1色",
	"前 or 背中 2色",
	"前 or 背中 フルカラー",
}

// ColorChoicesBoth lists the both-sides color-count options in prompt
// order.
var ColorChoicesBoth = []string{
	"前と背中 前1色 背中1色",
	"前と背中 前2色 背中1色",
	"前と背中 前1色 背中2色",
	"前と背中 前2色 背中2色",
	"前と背中 フルカラー",
}

// PositionChoices lists the print-position options in prompt order;
// 前と背中 is the only choice carrying the extra-position surcharge.
var PositionChoices = []string{
	"前のみ",
	"背中のみ",
	"前と背中",
}

// ColorChoicesFor returns the color-count options matching a
// print-position answer.
func ColorChoicesFor(position string) []string {
	if position == "前と背中" {
		return ColorChoicesBoth
	}
	return ColorChoicesSingle
}

// ColorCostFor resolves a color-count choice against both maps.
func ColorCostFor(choice string) (ColorCost, bool) {
	if c, ok := colorCostSingle[choice]; ok {
		return c, true
	}
	c, ok := colorCostBoth[choice]
	return c, ok
}

// BackNameFees are the fixed per-shirt fees for name/number prints.
var BackNameFees = map[string]int{
	"ネーム&番号セット": 900,
	"ネーム(大)":    500,
	"ネーム(小)":    300,
	"番号(大)":     500,
	"番号(小)":     300,
}

// BackNameChoices lists the quote flow's back-name options in prompt
// order; なし maps to fee 0.
var BackNameChoices = []string{
	"ネーム&番号セット",
	"ネーム(大)",
	"番号(大)",
	"なし",
}

// SpecialColorFees are per-shirt fees for special inks, charged once
// per chosen special color.
var SpecialColorFees = map[string]int{
	"ゴールド":      100,
	"シルバー":      100,
	"グリッターゴールド": 200,
	"グリッターシルバー": 200,
	"蛍光ピンク":     150,
	"蛍光グリーン":    150,
	"蛍光オレンジ":    150,
}

// OptionInkAttr marks colors billed the flat option-ink extra.
const OptionInkAttr = "オプションインク"

// ColorAttrMap classifies print colors; colors not listed are plain ink.
var ColorAttrMap = map[string]string{
	"パールホワイト": OptionInkAttr,
	"パールピンク":  OptionInkAttr,
	"パールブルー":  OptionInkAttr,
	"ラメゴールド":  OptionInkAttr,
	"ラメシルバー":  OptionInkAttr,
}

// OptionInkExtra is the flat per-shirt fee for each option-ink color.
const OptionInkExtra = 50

// FullColorSizeFees are per-shirt full-color transfer fees by print size.
var FullColorSizeFees = map[string]int{
	"S": 300,
	"M": 500,
	"L": 800,
}

// EdgeFee is the per-shirt fee for any フチ付き (outlined) lettering type.
const EdgeFee = 100

// quantityValues maps a quantity bucket label to its representative
// count (the range's lower bound).
var quantityValues = map[string]int{
	"10〜19枚": 10,
	"20〜29枚": 20,
	"30〜39枚": 30,
	"40〜49枚": 40,
	"50〜99枚": 50,
	"100枚以上": 100,
}

// QuantityChoices lists the bucket labels in prompt order, using the
// fullwidth tilde the prompts render with.
var QuantityChoices = []string{
	"10～19枚", "20～29枚", "30～39枚", "40～49枚", "50～99枚", "100枚以上",
}

// NormalizeQuantityLabel unifies the two tilde forms (～ → 〜) and trims
// whitespace so prompt text and table keys compare equal.
func NormalizeQuantityLabel(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, "～", "〜"))
}

// RepresentativeQuantity resolves a bucket label to its representative
// count.
func RepresentativeQuantity(label string) (int, bool) {
	v, ok := quantityValues[NormalizeQuantityLabel(label)]
	return v, ok
}

// BracketForQuantity buckets an exact count. Counts below the smallest
// bracket round up into it; the top bracket is open-ended.
func BracketForQuantity(qty int) string {
	switch {
	case qty < 20:
		return "10〜19枚"
	case qty < 30:
		return "20〜29枚"
	case qty < 40:
		return "30〜39枚"
	case qty < 50:
		return "40〜49枚"
	case qty < 100:
		return "50〜99枚"
	default:
		return "100枚以上"
	}
}
