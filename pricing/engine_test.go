package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgch/mitsumori/models"
)

// stubRates is a fixed in-memory rate table for engine tests.
type stubRates struct {
	rows []models.RateRow
}

func (s *stubRates) Find(item, discountType string, qty int) (*models.RateRow, error) {
	for i := range s.rows {
		if s.rows[i].Matches(item, discountType, qty) {
			return &s.rows[i], nil
		}
	}
	return nil, models.ErrRateNotFound
}

type stubPatternRates struct {
	rows []models.PatternRateRow
}

func (s *stubPatternRates) Find(item, pattern, quantityRange, userType string) (*models.PatternRateRow, error) {
	for i := range s.rows {
		r := &s.rows[i]
		if r.Item == item && r.Pattern == pattern && r.QuantityRange == quantityRange && r.UserType == userType {
			return r, nil
		}
	}
	return nil, models.ErrPatternRateNotFound
}

func createTestEngine() *Engine {
	rates := &stubRates{rows: []models.RateRow{
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 10, MaxQty: 19, UnitPrice: 1530, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 20, MaxQty: 29, UnitPrice: 1230, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 100, MaxQty: 9999, UnitPrice: 830, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "通常", MinQty: 20, MaxQty: 29, UnitPrice: 1380, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
	}}
	patternRates := &stubPatternRates{rows: []models.PatternRateRow{
		{Item: "ドライTシャツ", Pattern: "A", QuantityRange: "20〜29枚", UserType: "学生", UnitPrice: 980},
		{Item: "ドライTシャツ", Pattern: "A", QuantityRange: "20〜29枚", UserType: "一般", UnitPrice: 1080},
	}}
	return NewEngine(rates, patternRates)
}

func quoteAnswers(overrides map[string]string) map[string]string {
	answers := map[string]string{
		models.FieldUserType:      "学生",
		models.FieldUsageDate:     "14日目以降",
		models.FieldDiscountType:  "早割",
		models.FieldBudget:        "未定",
		models.FieldItem:          "ドライTシャツ",
		models.FieldQuantity:      "20〜29枚",
		models.FieldPrintPosition: "前のみ",
		models.FieldColorCount:    "前 or 背中 1色",
		models.FieldBackName:      "なし",
	}
	for k, v := range overrides {
		answers[k] = v
	}
	return answers
}

func TestPrice(t *testing.T) {
	engine := createTestEngine()

	tests := []struct {
		name      string
		overrides map[string]string
		wantUnit  int
		wantTotal int
	}{
		{
			name:      "base quote front only one color",
			overrides: nil,
			wantUnit:  1230,
			wantTotal: 24600,
		},
		{
			name: "both sides adds one position fee",
			overrides: map[string]string{
				models.FieldPrintPosition: "前と背中",
				models.FieldColorCount:    "前と背中 前1色 背中1色",
			},
			wantUnit:  1630,
			wantTotal: 32600,
		},
		{
			name: "both sides full color adds position fee and two fullcolor fees",
			overrides: map[string]string{
				models.FieldQuantity:      "100枚以上",
				models.FieldPrintPosition: "前と背中",
				models.FieldColorCount:    "前と背中 フルカラー",
			},
			// 830 + 400 + 2*600
			wantUnit:  2430,
			wantTotal: 243000,
		},
		{
			name: "extra flat color adds color fee",
			overrides: map[string]string{
				models.FieldColorCount: "前 or 背中 2色",
			},
			wantUnit:  1530,
			wantTotal: 30600,
		},
		{
			name: "two extra flat colors on both sides",
			overrides: map[string]string{
				models.FieldPrintPosition: "前と背中",
				models.FieldColorCount:    "前と背中 前2色 背中2色",
			},
			// 1230 + 400 + 2*300
			wantUnit:  2230,
			wantTotal: 44600,
		},
		{
			name: "name and number set adds back name fee",
			overrides: map[string]string{
				models.FieldBackName: "ネーム&番号セット",
			},
			wantUnit:  2130,
			wantTotal: 42600,
		},
		{
			name: "standard tier uses its own rate row",
			overrides: map[string]string{
				models.FieldUsageDate:    "14日目以内",
				models.FieldDiscountType: "通常",
			},
			wantUnit:  1380,
			wantTotal: 27600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Price(quoteAnswers(tt.overrides))
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, result.UnitPrice)
			assert.Equal(t, tt.wantTotal, result.TotalPrice)
			assert.Equal(t, result.UnitPrice*result.Quantity, result.TotalPrice)
		})
	}
}

func TestPriceDeterministic(t *testing.T) {
	engine := createTestEngine()
	answers := quoteAnswers(map[string]string{
		models.FieldPrintPosition: "前と背中",
		models.FieldColorCount:    "前と背中 フルカラー",
		models.FieldBackName:      "番号(大)",
	})

	first, err := engine.Price(answers)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Price(answers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPriceBreakdownSumsToUnit(t *testing.T) {
	engine := createTestEngine()

	result, err := engine.Price(quoteAnswers(map[string]string{
		models.FieldPrintPosition: "前と背中",
		models.FieldColorCount:    "前と背中 前2色 背中1色",
		models.FieldBackName:      "ネーム(大)",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1230, result.BaseUnit)
	assert.Equal(t, 400, result.PositionFee)
	assert.Equal(t, 300, result.ColorFee)
	assert.Equal(t, 500, result.BackNameFee)
	assert.Equal(t, result.BaseUnit+result.PositionFee+result.ColorFee+result.BackNameFee, result.UnitPrice)
}

func TestPriceRateNotFound(t *testing.T) {
	engine := createTestEngine()

	result, err := engine.Price(quoteAnswers(map[string]string{
		models.FieldItem: "存在しない商品",
	}))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrRateNotFound)
}

func TestPriceOrZero(t *testing.T) {
	engine := createTestEngine()

	t.Run("missing rate row yields zero result", func(t *testing.T) {
		result := engine.PriceOrZero(quoteAnswers(map[string]string{
			models.FieldItem: "存在しない商品",
		}))
		require.NotNil(t, result)
		assert.True(t, result.IsZero())
		assert.Equal(t, "存在しない商品", result.Item)
		assert.Equal(t, 20, result.Quantity)
	})

	t.Run("matching rate row prices normally", func(t *testing.T) {
		result := engine.PriceOrZero(quoteAnswers(nil))
		require.NotNil(t, result)
		assert.False(t, result.IsZero())
		assert.Equal(t, 1230, result.UnitPrice)
	})
}

func TestResolveQuantity(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantLabel string
		wantQty   int
	}{
		{"bucket label", "20〜29枚", "20〜29枚", 20},
		{"halfwidth tilde label", "20～29枚", "20〜29枚", 20},
		{"top bucket", "100枚以上", "100枚以上", 100},
		{"bare count inside a bracket", "25", "20〜29枚", 20},
		{"bare count below smallest bracket rounds up", "5", "10〜19枚", 10},
		{"bare count in top bracket", "250", "100枚以上", 100},
		{"unparseable falls back to one", "たくさん", "たくさん", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, qty := resolveQuantity(tt.answer)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantQty, qty)
		})
	}
}

func TestDiscountTier(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		want    string
	}{
		{
			name:    "derived field wins",
			answers: map[string]string{models.FieldDiscountType: "早割"},
			want:    "早割",
		},
		{
			name:    "usage date fourteen days out derives early",
			answers: map[string]string{models.FieldUsageDate: "14日目以降"},
			want:    "早割",
		},
		{
			name:    "usage date within fourteen days derives standard",
			answers: map[string]string{models.FieldUsageDate: "14日目以内"},
			want:    "通常",
		},
		{
			name:    "empty answers derive standard",
			answers: map[string]string{},
			want:    "通常",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, discountTier(tt.answers))
		})
	}
}

func TestPricePattern(t *testing.T) {
	engine := createTestEngine()

	t.Run("student pattern price", func(t *testing.T) {
		result, err := engine.PricePattern(map[string]string{
			models.FieldUserType: "学生",
			models.FieldItem:     "ドライTシャツ",
			models.FieldPattern:  "パターンA",
			models.FieldQuantity: "20〜29枚",
		})
		require.NoError(t, err)
		assert.Equal(t, 980, result.UnitPrice)
		assert.Equal(t, 19600, result.TotalPrice)
	})

	t.Run("missing user type defaults to general", func(t *testing.T) {
		result, err := engine.PricePattern(map[string]string{
			models.FieldItem:     "ドライTシャツ",
			models.FieldPattern:  "パターンA",
			models.FieldQuantity: "20〜29枚",
		})
		require.NoError(t, err)
		assert.Equal(t, 1080, result.UnitPrice)
	})

	t.Run("unknown pattern returns error", func(t *testing.T) {
		_, err := engine.PricePattern(map[string]string{
			models.FieldUserType: "学生",
			models.FieldItem:     "ドライTシャツ",
			models.FieldPattern:  "パターンZ",
			models.FieldQuantity: "20〜29枚",
		})
		assert.ErrorIs(t, err, models.ErrPatternRateNotFound)
	})
}

func TestPricePatternOrZero(t *testing.T) {
	engine := createTestEngine()

	t.Run("missing price row yields zero result", func(t *testing.T) {
		result := engine.PricePatternOrZero(map[string]string{
			models.FieldUserType: "学生",
			models.FieldItem:     "ドライTシャツ",
			models.FieldPattern:  "パターンZ",
			models.FieldQuantity: "20〜29枚",
		})
		require.NotNil(t, result)
		assert.True(t, result.IsZero())
		assert.Equal(t, "ドライTシャツ", result.Item)
		assert.Equal(t, 20, result.Quantity)
	})

	t.Run("matching price row prices normally", func(t *testing.T) {
		result := engine.PricePatternOrZero(map[string]string{
			models.FieldUserType: "学生",
			models.FieldItem:     "ドライTシャツ",
			models.FieldPattern:  "パターンA",
			models.FieldQuantity: "20〜29枚",
		})
		require.NotNil(t, result)
		assert.Equal(t, 19600, result.TotalPrice)
	})
}

func TestBracketForQuantity(t *testing.T) {
	tests := []struct {
		qty  int
		want string
	}{
		{1, "10〜19枚"},
		{10, "10〜19枚"},
		{19, "10〜19枚"},
		{20, "20〜29枚"},
		{45, "40〜49枚"},
		{99, "50〜99枚"},
		{100, "100枚以上"},
		{500, "100枚以上"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BracketForQuantity(tt.qty), "qty %d", tt.qty)
	}
}
