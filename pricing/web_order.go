package pricing

import (
	"fmt"
	"strconv"

	"github.com/ymgch/mitsumori/models"
)

// PriceWebOrder computes the detailed order-form price: up to four
// independent print positions, each with its own color selections,
// edge lettering, full-color size and special-ink surcharges, summed
// over the base rate row.
//
// This path keeps the legacy soft-failure: a missing rate row yields an
// all-zero breakdown, because drafts must save before the product
// selection is complete.
func (e *Engine) PriceWebOrder(values models.WebOrderValues) *models.QuoteResult {
	item := values["productName"]
	qty, _ := strconv.Atoi(values["totalQuantity"])

	discountType := models.DiscountStandard
	if values["discountOption"] == models.DiscountEarly {
		discountType = models.DiscountEarly
	}

	result := &models.QuoteResult{
		Item:          item,
		DiscountType:  discountType,
		QuantityLabel: values["totalQuantity"],
		Quantity:      qty,
	}

	row, err := e.rates.Find(item, discountType, qty)
	if err != nil {
		return result
	}

	positionFee := row.PosAdd * max(0, values.PositionCount()-1)

	colorAddCnt := 0
	optionInkExtra := 0
	fullColorExtra := 0
	backNameFee := 0

	for p := 1; p <= 4; p++ {
		if values[fmt.Sprintf("printPositionNo%d", p)] == "" {
			continue
		}

		var colors []string
		for i := 1; i <= 3; i++ {
			if c := values[fmt.Sprintf("printColorOption%d_%d", p, i)]; c != "" {
				colors = append(colors, c)
			}
		}

		// The first color is covered by the base price.
		switch len(colors) {
		case 2:
			colorAddCnt++
		case 3:
			colorAddCnt += 2
		}

		for _, c := range colors {
			if fee, ok := BackNameFees[c]; ok {
				backNameFee += fee
			}
			if fee, ok := SpecialColorFees[c]; ok {
				backNameFee += fee
			}
			if ColorAttrMap[c] == OptionInkAttr {
				optionInkExtra += OptionInkExtra
			}
		}

		if size := values[fmt.Sprintf("fullColorSize%d", p)]; size != "" {
			fullColorExtra += FullColorSizeFees[size]
		}

		if single := values[fmt.Sprintf("singleColor%d", p)]; single != "" {
			if fee, ok := SpecialColorFees[single]; ok {
				backNameFee += fee
			}
		}

		if edge := values[fmt.Sprintf("edgeType%d", p)]; edge != "" && edge != "なし" {
			backNameFee += EdgeFee
			for _, key := range []string{
				fmt.Sprintf("edgeCustomTextColor%d", p),
				fmt.Sprintf("edgeCustomEdgeColor%d", p),
				fmt.Sprintf("edgeCustomEdgeColor2_%d", p),
			} {
				if fee, ok := SpecialColorFees[values[key]]; ok {
					backNameFee += fee
				}
			}
		}
	}

	colorFee := colorAddCnt*row.ColorAdd + fullColorExtra + optionInkExtra

	result.BaseUnit = row.UnitPrice
	result.PositionFee = positionFee
	result.ColorFee = colorFee
	result.OptionInkFee = optionInkExtra
	result.FullColorFee = fullColorExtra
	result.BackNameFee = backNameFee
	result.UnitPrice = row.UnitPrice + positionFee + colorFee + backNameFee
	result.TotalPrice = result.UnitPrice * qty
	return result
}
