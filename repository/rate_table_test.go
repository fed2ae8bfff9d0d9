package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgch/mitsumori/models"
)

func validRateRows() []models.RateRow {
	return []models.RateRow{
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 10, MaxQty: 19, UnitPrice: 1530, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 20, MaxQty: 29, UnitPrice: 1230, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "早割", MinQty: 30, MaxQty: 9999, UnitPrice: 1130, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
		{Item: "ドライTシャツ", DiscountType: "通常", MinQty: 10, MaxQty: 9999, UnitPrice: 1680, PosAdd: 400, ColorAdd: 300, FullColorAdd: 600},
	}
}

func TestNewRateTable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(rows []models.RateRow) []models.RateRow
		wantErr string
	}{
		{
			name:   "valid contiguous ranges",
			mutate: func(rows []models.RateRow) []models.RateRow { return rows },
		},
		{
			name:    "no rows",
			mutate:  func([]models.RateRow) []models.RateRow { return nil },
			wantErr: "no rows",
		},
		{
			name: "gap between ranges",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[1].MinQty = 22
				return rows
			},
			wantErr: "does not continue",
		},
		{
			name: "overlapping ranges",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[1].MinQty = 15
				return rows
			},
			wantErr: "does not continue",
		},
		{
			name: "inverted range",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[0].MaxQty = 5
				return rows
			},
			wantErr: "invalid range",
		},
		{
			name: "missing item",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[0].Item = ""
				return rows
			},
			wantErr: "missing item",
		},
		{
			name: "zero unit price",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[2].UnitPrice = 0
				return rows
			},
			wantErr: "unit price",
		},
		{
			name: "negative surcharge",
			mutate: func(rows []models.RateRow) []models.RateRow {
				rows[2].PosAdd = -1
				return rows
			},
			wantErr: "negative surcharge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewRateTable(tt.mutate(validRateRows()))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, table)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, table.Len())
		})
	}
}

func TestRateTableFind(t *testing.T) {
	table, err := NewRateTable(validRateRows())
	require.NoError(t, err)

	t.Run("match inside range", func(t *testing.T) {
		row, err := table.Find("ドライTシャツ", "早割", 25)
		require.NoError(t, err)
		assert.Equal(t, 1230, row.UnitPrice)
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		low, err := table.Find("ドライTシャツ", "早割", 20)
		require.NoError(t, err)
		high, err2 := table.Find("ドライTシャツ", "早割", 29)
		require.NoError(t, err2)
		assert.Equal(t, low.UnitPrice, high.UnitPrice)
	})

	t.Run("quantity below all ranges", func(t *testing.T) {
		_, err := table.Find("ドライTシャツ", "早割", 5)
		assert.ErrorIs(t, err, models.ErrRateNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := table.Find("謎の商品", "早割", 25)
		assert.ErrorIs(t, err, models.ErrRateNotFound)
	})

	t.Run("returned row is a copy", func(t *testing.T) {
		row, err := table.Find("ドライTシャツ", "早割", 25)
		require.NoError(t, err)
		row.UnitPrice = 1

		again, err := table.Find("ドライTシャツ", "早割", 25)
		require.NoError(t, err)
		assert.Equal(t, 1230, again.UnitPrice)
	})
}

func TestLoadRateTable(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.json")
		data := `[
			{"item":"ドライTシャツ","discount_type":"早割","min_qty":10,"max_qty":19,"unit_price":1530,"pos_add":400,"color_add":300,"fullcolor_add":600},
			{"item":"ドライTシャツ","discount_type":"早割","min_qty":20,"max_qty":9999,"unit_price":1230,"pos_add":400,"color_add":300,"fullcolor_add":600}
		]`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		table, err := LoadRateTable(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())

		row, err := table.Find("ドライTシャツ", "早割", 12)
		require.NoError(t, err)
		assert.Equal(t, 1530, row.UnitPrice)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRateTable(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := LoadRateTable(path)
		assert.Error(t, err)
	})
}

func validPatternRows() []models.PatternRateRow {
	return []models.PatternRateRow{
		{Item: "ドライTシャツ", Pattern: "A", QuantityRange: "20〜29枚", UserType: "学生", UnitPrice: 980},
		{Item: "ドライTシャツ", Pattern: "A", QuantityRange: "20〜29枚", UserType: "一般", UnitPrice: 1080},
		{Item: "ドライTシャツ", Pattern: "B", QuantityRange: "20〜29枚", UserType: "学生", UnitPrice: 1080},
	}
}

func TestNewPatternRateTable(t *testing.T) {
	t.Run("valid rows", func(t *testing.T) {
		table, err := NewPatternRateTable(validPatternRows())
		require.NoError(t, err)
		assert.Equal(t, 3, table.Len())
	})

	t.Run("duplicate key", func(t *testing.T) {
		rows := append(validPatternRows(), validPatternRows()[0])
		_, err := NewPatternRateTable(rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("empty key field", func(t *testing.T) {
		rows := validPatternRows()
		rows[0].Pattern = ""
		_, err := NewPatternRateTable(rows)
		assert.Error(t, err)
	})
}

func TestPatternRateTableFind(t *testing.T) {
	table, err := NewPatternRateTable(validPatternRows())
	require.NoError(t, err)

	row, err := table.Find("ドライTシャツ", "A", "20〜29枚", "学生")
	require.NoError(t, err)
	assert.Equal(t, 980, row.UnitPrice)

	_, err = table.Find("ドライTシャツ", "C", "20〜29枚", "学生")
	assert.ErrorIs(t, err, models.ErrPatternRateNotFound)
}
