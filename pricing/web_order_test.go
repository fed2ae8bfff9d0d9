package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgch/mitsumori/models"
)

func webOrderValues(overrides map[string]string) models.WebOrderValues {
	values := models.WebOrderValues{
		"productName":         "ドライTシャツ",
		"totalQuantity":       "25",
		"discountOption":      "早割",
		"printPositionNo1":    "前",
		"printColorOption1_1": "ブラック",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return values
}

func TestPriceWebOrder(t *testing.T) {
	engine := createTestEngine()

	tests := []struct {
		name      string
		overrides map[string]string
		wantUnit  int
		check     func(t *testing.T, r *models.QuoteResult)
	}{
		{
			name:     "single position single color has no surcharges",
			wantUnit: 1230,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 1230, r.BaseUnit)
				assert.Zero(t, r.PositionFee)
				assert.Zero(t, r.ColorFee)
				assert.Zero(t, r.BackNameFee)
			},
		},
		{
			name: "second position adds one position fee",
			overrides: map[string]string{
				"printPositionNo2":    "背中",
				"printColorOption2_1": "ホワイト",
			},
			wantUnit: 1630,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 400, r.PositionFee)
			},
		},
		{
			name: "four positions add three position fees",
			overrides: map[string]string{
				"printPositionNo2":    "背中",
				"printColorOption2_1": "ホワイト",
				"printPositionNo3":    "左袖",
				"printColorOption3_1": "ホワイト",
				"printPositionNo4":    "右袖",
				"printColorOption4_1": "ホワイト",
			},
			wantUnit: 2430,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 1200, r.PositionFee)
			},
		},
		{
			name: "two colors on one position add one color fee",
			overrides: map[string]string{
				"printColorOption1_2": "レッド",
			},
			wantUnit: 1530,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 300, r.ColorFee)
			},
		},
		{
			name: "three colors on one position add two color fees",
			overrides: map[string]string{
				"printColorOption1_2": "レッド",
				"printColorOption1_3": "ブルー",
			},
			wantUnit: 1830,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 600, r.ColorFee)
			},
		},
		{
			name: "special ink charges per color",
			overrides: map[string]string{
				"printColorOption1_1": "ゴールド",
				"printColorOption1_2": "グリッターシルバー",
			},
			// 1230 + color_add 300 + gold 100 + glitter 200
			wantUnit: 1830,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 300, r.BackNameFee)
			},
		},
		{
			name: "option ink adds flat extra per color",
			overrides: map[string]string{
				"printColorOption1_1": "パールホワイト",
				"printColorOption1_2": "ラメゴールド",
			},
			// 1230 + color_add 300 + 2*50
			wantUnit: 1630,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 100, r.OptionInkFee)
				assert.Equal(t, 400, r.ColorFee)
			},
		},
		{
			name: "full color size fee joins the color fee",
			overrides: map[string]string{
				"fullColorSize1": "L",
			},
			wantUnit: 2030,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 800, r.FullColorFee)
				assert.Equal(t, 800, r.ColorFee)
			},
		},
		{
			name: "name and number selection among colors bills its fee",
			overrides: map[string]string{
				"printColorOption1_2": "ネーム&番号セット",
			},
			// counts as a second color too: 1230 + 300 + 900
			wantUnit: 2430,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 900, r.BackNameFee)
			},
		},
		{
			name: "special single color fee",
			overrides: map[string]string{
				"singleColor1": "蛍光ピンク",
			},
			wantUnit: 1380,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 150, r.BackNameFee)
			},
		},
		{
			name: "edge lettering adds flat fee plus special edge colors",
			overrides: map[string]string{
				"edgeType1":            "フチ付き",
				"edgeCustomTextColor1": "シルバー",
				"edgeCustomEdgeColor1": "蛍光オレンジ",
			},
			// 1230 + 100 + 100 + 150
			wantUnit: 1580,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, 350, r.BackNameFee)
			},
		},
		{
			name: "edge type none is free",
			overrides: map[string]string{
				"edgeType1": "なし",
			},
			wantUnit: 1230,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Zero(t, r.BackNameFee)
			},
		},
		{
			name: "standard tier when discount option is not early",
			overrides: map[string]string{
				"discountOption": "通常",
			},
			wantUnit: 1380,
			check: func(t *testing.T, r *models.QuoteResult) {
				assert.Equal(t, "通常", r.DiscountType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.PriceWebOrder(webOrderValues(tt.overrides))
			require.NotNil(t, result)
			assert.Equal(t, tt.wantUnit, result.UnitPrice)
			assert.Equal(t, tt.wantUnit*25, result.TotalPrice)
			assert.Equal(t, 25, result.Quantity)
			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestPriceWebOrderComposite(t *testing.T) {
	engine := createTestEngine()

	result := engine.PriceWebOrder(webOrderValues(map[string]string{
		"printColorOption1_1":  "ゴールド",
		"printColorOption1_2":  "パールホワイト",
		"fullColorSize1":       "M",
		"printPositionNo2":     "背中",
		"printColorOption2_1":  "ブラック",
		"edgeType2":            "フチ付き",
		"edgeCustomTextColor2": "シルバー",
	}))
	require.NotNil(t, result)

	assert.Equal(t, 1230, result.BaseUnit)
	assert.Equal(t, 400, result.PositionFee)
	// color_add 300 + fullcolor M 500 + option ink 50
	assert.Equal(t, 850, result.ColorFee)
	assert.Equal(t, 50, result.OptionInkFee)
	assert.Equal(t, 500, result.FullColorFee)
	// gold 100 + edge fee 100 + silver edge text 100
	assert.Equal(t, 300, result.BackNameFee)
	assert.Equal(t, 2780, result.UnitPrice)
	assert.Equal(t, 69500, result.TotalPrice)
}

func TestPriceWebOrderMissingRateRow(t *testing.T) {
	engine := createTestEngine()

	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{"unknown product", map[string]string{"productName": "存在しない商品"}},
		{"empty quantity", map[string]string{"totalQuantity": ""}},
		{"zero quantity", map[string]string{"totalQuantity": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.PriceWebOrder(webOrderValues(tt.overrides))
			require.NotNil(t, result)
			assert.True(t, result.IsZero())
		})
	}
}

func TestPriceWebOrderPositionWithoutColors(t *testing.T) {
	engine := createTestEngine()

	// A declared position with no colors still counts toward the
	// position fee.
	result := engine.PriceWebOrder(webOrderValues(map[string]string{
		"printPositionNo2": "背中",
	}))
	require.NotNil(t, result)
	assert.Equal(t, 400, result.PositionFee)
	assert.Zero(t, result.ColorFee)
	assert.Equal(t, 1630, result.UnitPrice)
}
