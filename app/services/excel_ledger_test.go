package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/models"
)

func newTestLedger(t *testing.T) (OrderLedger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "orders.xlsx")
	ledger, err := NewExcelLedger(&config.LedgerConfig{Path: path})
	require.NoError(t, err)
	return ledger, path
}

func sampleQuoteRow() models.QuoteRow {
	return models.QuoteRow{
		Timestamp:     "2025/04/01 12:00:00",
		QuoteNumber:   "1743476400",
		UserID:        "U-ledger-1",
		UserType:      "学生",
		UsageLabel:    "14日目以降(早割)",
		Budget:        "〜50,000円",
		Item:          "ドライTシャツ",
		Quantity:      "10〜19枚",
		PrintPosition: "前のみ",
		ColorCount:    "前 or 背中 1色",
		BackName:      "なし",
		TotalPrice:    "¥15,300",
		UnitPrice:     "¥1,530",
		OrderFormURL:  "https://forms.example.com/web_order_form?quote_no=1743476400&uid=U-ledger-1",
	}
}

func sampleWebOrder(orderNo, quoteNo string) models.WebOrderValues {
	return models.WebOrderValues{
		"timestamp":     "2025/04/01 12:00:00",
		"productName":   "ドライTシャツ",
		"colorName":     "ホワイト",
		"sizeM":         "10",
		"totalQuantity": "10",
		"schoolName":    "横浜第一高校",
		"orderNo":       orderNo,
		"quote_no":      quoteNo,
		"unitPrice":     "1530",
		"totalPrice":    "15300",
	}
}

func TestExcelLedgerCreatesWorkbook(t *testing.T) {
	_, path := newTestLedger(t)

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	sheets := book.GetSheetList()
	assert.Contains(t, sheets, CatalogSheet)
	assert.Contains(t, sheets, QuoteSheet)
	assert.Contains(t, sheets, WebOrderSheet)

	rows, err := book.GetRows(CatalogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1, "a fresh sheet holds only the header")
	assert.Equal(t, catalogHeaders, rows[0])

	rows, err = book.GetRows(QuoteSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, quoteHeaders, rows[0])

	rows, err = book.GetRows(WebOrderSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, webOrderHeaders, rows[0])
}

func TestWebOrderHeadersMatchColumnKeys(t *testing.T) {
	assert.Equal(t, len(models.WebOrderColumnKeys), len(webOrderHeaders),
		"every column key needs a header cell")
}

func TestExcelLedgerCatalogAppend(t *testing.T) {
	ledger, path := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.AppendCatalogRequest(ctx, models.CatalogRequest{
		Timestamp:  "2025/04/01 12:00:00",
		Name:       "山田 太郎",
		PostalCode: "2310045",
		Address1:   "神奈川県横浜市中区伊勢佐木町1-2-3",
		Address2:   "グラフィビル 4F",
		Phone:      "045-123-4567",
		Email:      "taro@example.com",
		SNSAccount: "@taro_045",
	}))
	require.NoError(t, ledger.AppendCatalogRequest(ctx, models.CatalogRequest{
		Timestamp: "2025/04/01 12:05:00",
		Name:      "鈴木 花子",
	}))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(CatalogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "山田 太郎", rows[1][1])
	assert.Equal(t, "神奈川県横浜市中区伊勢佐木町1-2-3 グラフィビル 4F", rows[1][3],
		"both address parts share one cell")
	assert.Equal(t, "@taro_045", rows[1][6])
	assert.Equal(t, "鈴木 花子", rows[2][1])
}

func TestExcelLedgerQuoteRoundTrip(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	row := sampleQuoteRow()
	require.NoError(t, ledger.AppendQuote(ctx, row))

	found, err := ledger.FindQuoteByNumber(ctx, row.QuoteNumber)
	require.NoError(t, err)
	assert.Equal(t, &row, found)

	_, err = ledger.FindQuoteByNumber(ctx, "0000000000")
	assert.ErrorIs(t, err, models.ErrQuoteNotFound)
}

func TestExcelLedgerWebOrderUpsert(t *testing.T) {
	ledger, path := newTestLedger(t)
	ctx := context.Background()

	draft := sampleWebOrder("20250401120000", "1743476400")
	require.NoError(t, ledger.UpsertWebOrder(ctx, draft))

	final := sampleWebOrder("20250401120000", "1743476400")
	final["colorName"] = "ネイビー"
	require.NoError(t, ledger.UpsertWebOrder(ctx, final))

	other := sampleWebOrder("20250401130000", "1743476500")
	require.NoError(t, ledger.UpsertWebOrder(ctx, other))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(WebOrderSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "the rewrite must land on the draft's row")

	found, err := ledger.FindWebOrderByQuoteNumber(ctx, "1743476400")
	require.NoError(t, err)
	assert.Equal(t, "ネイビー", found["colorName"])
	assert.Equal(t, "20250401120000", found["orderNo"])

	_, err = ledger.FindWebOrderByQuoteNumber(ctx, "9999999999")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, err = ledger.FindWebOrderByQuoteNumber(ctx, "")
	assert.ErrorIs(t, err, models.ErrOrderNotFound, "an empty quote number matches nothing")
}

func TestExcelLedgerMarkOrderConfirmed(t *testing.T) {
	ledger, path := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.UpsertWebOrder(ctx, sampleWebOrder("20250401120000", "1743476400")))

	assert.ErrorIs(t, ledger.MarkOrderConfirmed(ctx, "00000000000000", false), models.ErrOrderNotFound)

	require.NoError(t, ledger.MarkOrderConfirmed(ctx, "20250401120000", false))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	styleID, err := book.GetCellStyle(WebOrderSheet, "A2")
	require.NoError(t, err)
	assert.NotZero(t, styleID, "a confirmed row carries a fill style")
	require.NoError(t, book.Close())

	// Cancelling recolors the same row back to white.
	require.NoError(t, ledger.MarkOrderConfirmed(ctx, "20250401120000", true))

	found, err := ledger.FindWebOrderByQuoteNumber(ctx, "1743476400")
	require.NoError(t, err)
	assert.Equal(t, "ドライTシャツ", found["productName"], "recoloring keeps the cell values")
}

func TestExcelLedgerReopensExistingWorkbook(t *testing.T) {
	ledger, path := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, ledger.AppendQuote(ctx, sampleQuoteRow()))

	reopened, err := NewExcelLedger(&config.LedgerConfig{Path: path})
	require.NoError(t, err)

	row := sampleQuoteRow()
	row.QuoteNumber = "1743476401"
	require.NoError(t, reopened.AppendQuote(ctx, row))

	// Both the pre-existing and the new row are present.
	first, err := reopened.FindQuoteByNumber(ctx, "1743476400")
	require.NoError(t, err)
	assert.Equal(t, "ドライTシャツ", first.Item)

	second, err := reopened.FindQuoteByNumber(ctx, "1743476401")
	require.NoError(t, err)
	assert.Equal(t, "1743476401", second.QuoteNumber)
}

func TestMockOrderLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("quote append and lookup", func(t *testing.T) {
		mock := &MockOrderLedger{}
		row := sampleQuoteRow()
		require.NoError(t, mock.AppendQuote(ctx, row))

		found, err := mock.FindQuoteByNumber(ctx, row.QuoteNumber)
		require.NoError(t, err)
		assert.Equal(t, &row, found)

		_, err = mock.FindQuoteByNumber(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrQuoteNotFound)
	})

	t.Run("web order upsert deduplicates by order number", func(t *testing.T) {
		mock := &MockOrderLedger{}
		require.NoError(t, mock.UpsertWebOrder(ctx, sampleWebOrder("1", "q1")))
		require.NoError(t, mock.UpsertWebOrder(ctx, sampleWebOrder("1", "q1")))
		require.NoError(t, mock.UpsertWebOrder(ctx, sampleWebOrder("2", "q2")))
		assert.Len(t, mock.WebOrders, 2)
	})

	t.Run("order state tracking", func(t *testing.T) {
		mock := &MockOrderLedger{}
		require.NoError(t, mock.UpsertWebOrder(ctx, sampleWebOrder("1", "q1")))

		require.NoError(t, mock.MarkOrderConfirmed(ctx, "1", false))
		assert.Equal(t, "confirmed", mock.OrderStates["1"])

		require.NoError(t, mock.MarkOrderConfirmed(ctx, "1", true))
		assert.Equal(t, "cancelled", mock.OrderStates["1"])

		assert.ErrorIs(t, mock.MarkOrderConfirmed(ctx, "missing", false), models.ErrOrderNotFound)
	})

	t.Run("injected failure short-circuits every call", func(t *testing.T) {
		mock := &MockOrderLedger{Err: assert.AnError}
		assert.ErrorIs(t, mock.AppendQuote(ctx, sampleQuoteRow()), assert.AnError)
		assert.ErrorIs(t, mock.UpsertWebOrder(ctx, sampleWebOrder("1", "q1")), assert.AnError)
		_, err := mock.FindWebOrderByQuoteNumber(ctx, "q1")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
