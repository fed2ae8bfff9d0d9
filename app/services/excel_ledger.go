package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/models"
)

// Ledger sheet names. 簡易見積 keeps its Japanese name; office staff
// work in this workbook directly.
const (
	CatalogSheet  = "CatalogRequests"
	QuoteSheet    = "簡易見積"
	WebOrderSheet = "WebOrderRequests"
)

// Row fill colors for order state. Confirmed rows turn pale green,
// cancelled ones back to white.
const (
	confirmedFill = "D9FFD9"
	cancelledFill = "FFFFFF"
)

var catalogHeaders = []string{
	"日時",
	"氏名", "郵便番号", "住所", "電話番号",
	"メールアドレス", "Insta/TikTok名",
	"在籍予定の学校名と学年", "その他(質問・要望)",
}

var quoteHeaders = []string{
	"日時", "見積番号", "ユーザーID", "属性",
	"使用日(割引区分)", "予算", "商品名", "枚数",
	"プリント位置", "色数", "背ネーム",
	"合計金額", "単価", "WebフォームURL",
}

// webOrderHeaders mirrors models.WebOrderColumnKeys cell for cell.
var webOrderHeaders = []string{
	// 基本情報
	"日時",
	"商品名", "品番", "カラー番号", "商品カラー",
	"150サイズ枚数", "SSサイズ枚数", "Sサイズ枚数", "Mサイズ枚数",
	"L(F)サイズ枚数", "LL(XL)サイズ枚数", "3L(XXL)サイズ枚数", "合計枚数",

	// １ヵ所目
	"プリント位置No1", "ネーム・番号オプション1", "ネーム・番号プリント種別1",
	"単色カラー1", "フチ付きタイプ1",
	"文字色1", "フチ色1(1)", "フチ色2(1)",
	"フォント種別1", "フォント番号1",
	"プリントカラー1色目(1)", "プリントカラー2色目(1)", "プリントカラー3色目(1)",
	"フルカラーサイズ1",
	"デザイン番号1", "デザインサイズ種別1", "デザイン幅cm1", "デザイン高さcm1",

	// ２ヵ所目
	"プリント位置No2", "ネーム・番号オプション2", "ネーム・番号プリント種別2",
	"単色カラー2", "フチ付きタイプ2",
	"文字色2", "フチ色1(2)", "フチ色2(2)",
	"フォント種別2", "フォント番号2",
	"プリントカラー1色目(2)", "プリントカラー2色目(2)", "プリントカラー3色目(2)",
	"フルカラーサイズ2",
	"デザイン番号2", "デザインサイズ種別2", "デザイン幅cm2", "デザイン高さcm2",

	// ３ヵ所目
	"プリント位置No3", "ネーム・番号オプション3", "ネーム・番号プリント種別3",
	"単色カラー3", "フチ付きタイプ3",
	"文字色3", "フチ色1(3)", "フチ色2(3)",
	"フォント種別3", "フォント番号3",
	"プリントカラー1色目(3)", "プリントカラー2色目(3)", "プリントカラー3色目(3)",
	"フルカラーサイズ3",
	"デザイン番号3", "デザインサイズ種別3", "デザイン幅cm3", "デザイン高さcm3",

	// ４ヵ所目
	"プリント位置No4", "ネーム・番号オプション4", "ネーム・番号プリント種別4",
	"単色カラー4", "フチ付きタイプ4",
	"文字色4", "フチ色1(4)", "フチ色2(4)",
	"フォント種別4", "フォント番号4",
	"プリントカラー1色目(4)", "プリントカラー2色目(4)", "プリントカラー3色目(4)",
	"フルカラーサイズ4",
	"デザイン番号4", "デザインサイズ種別4", "デザイン幅cm4", "デザイン高さcm4",

	// 発送・連絡先など
	"希望お届け日", "使用日", "申込日", "利用学割特典",
	"学校名", "LINE名", "クラス・団体名",
	"郵便番号", "住所1", "住所2", "お届け先宛名", "学校TEL",
	"代表者", "代表者TEL", "代表者メール",
	"デザイン確認方法", "お支払い方法",
	"注文番号", "見積番号", "単価", "合計金額",
}

// OrderLedger persists catalog requests, quotes and web orders to the
// office workbook and reads them back for form prefill and order state.
type OrderLedger interface {
	AppendCatalogRequest(ctx context.Context, req models.CatalogRequest) error
	AppendQuote(ctx context.Context, row models.QuoteRow) error
	FindQuoteByNumber(ctx context.Context, quoteNumber string) (*models.QuoteRow, error)
	UpsertWebOrder(ctx context.Context, values models.WebOrderValues) error
	FindWebOrderByQuoteNumber(ctx context.Context, quoteNumber string) (models.WebOrderValues, error)
	MarkOrderConfirmed(ctx context.Context, orderNo string, cancel bool) error
}

// ExcelLedgerImpl implements OrderLedger on a local xlsx workbook. The
// mutex covers the whole open-modify-save cycle; the process is the
// workbook's only writer.
type ExcelLedgerImpl struct {
	path string
	mu   sync.Mutex
}

// NewExcelLedger opens the workbook at cfg.Path, creating it with all
// three sheets and their header rows when absent.
func NewExcelLedger(cfg *config.LedgerConfig) (OrderLedger, error) {
	l := &ExcelLedgerImpl{path: cfg.Path}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *ExcelLedgerImpl) init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat ledger %s: %w", l.path, err)
		}
		return l.createWorkbook()
	}

	book, err := l.open()
	if err != nil {
		return err
	}
	defer book.Close()

	created, err := ensureSheets(book)
	if err != nil {
		return err
	}
	if created {
		return book.Save()
	}
	return nil
}

func (l *ExcelLedgerImpl) createWorkbook() error {
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", CatalogSheet); err != nil {
		return err
	}
	if err := book.SetSheetRow(CatalogSheet, "A1", &catalogHeaders); err != nil {
		return err
	}
	if _, err := ensureSheets(book); err != nil {
		return err
	}
	return book.SaveAs(l.path)
}

// ensureSheets adds any missing sheet with its header row and reports
// whether it changed the workbook.
func ensureSheets(book *excelize.File) (bool, error) {
	created := false
	for _, s := range []struct {
		name    string
		headers []string
	}{
		{CatalogSheet, catalogHeaders},
		{QuoteSheet, quoteHeaders},
		{WebOrderSheet, webOrderHeaders},
	} {
		idx, err := book.GetSheetIndex(s.name)
		if err != nil {
			return created, err
		}
		if idx >= 0 {
			continue
		}
		if _, err := book.NewSheet(s.name); err != nil {
			return created, err
		}
		if err := book.SetSheetRow(s.name, "A1", &s.headers); err != nil {
			return created, err
		}
		created = true
	}
	return created, nil
}

func (l *ExcelLedgerImpl) open() (*excelize.File, error) {
	book, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	return book, nil
}

// appendRow writes values after the last used row. Caller holds l.mu.
func (l *ExcelLedgerImpl) appendRow(sheet string, values []any) error {
	book, err := l.open()
	if err != nil {
		return err
	}
	defer book.Close()

	rows, err := book.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	if err := book.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	return book.Save()
}

func (l *ExcelLedgerImpl) AppendCatalogRequest(ctx context.Context, req models.CatalogRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendRow(CatalogSheet, req.Values())
}

func (l *ExcelLedgerImpl) AppendQuote(ctx context.Context, row models.QuoteRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendRow(QuoteSheet, row.Values())
}

func (l *ExcelLedgerImpl) FindQuoteByNumber(ctx context.Context, quoteNumber string) (*models.QuoteRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.open()
	if err != nil {
		return nil, err
	}
	defer book.Close()

	rows, err := book.GetRows(QuoteSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", QuoteSheet, err)
	}
	for i := 1; i < len(rows); i++ {
		if cellAt(rows[i], 1) == quoteNumber {
			return quoteRowFromCells(rows[i]), nil
		}
	}
	return nil, models.ErrQuoteNotFound
}

func (l *ExcelLedgerImpl) UpsertWebOrder(ctx context.Context, values models.WebOrderValues) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.open()
	if err != nil {
		return err
	}
	defer book.Close()

	rows, err := book.GetRows(WebOrderSheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", WebOrderSheet, err)
	}

	// Draft saves and the final submit share one order number; the
	// later write replaces the earlier row instead of stacking
	// duplicates.
	target := len(rows) + 1
	orderNoCol := models.WebOrderColumnIndex("orderNo")
	if orderNo := values["orderNo"]; orderNo != "" {
		for i := 1; i < len(rows); i++ {
			if cellAt(rows[i], orderNoCol) == orderNo {
				target = i + 1
				break
			}
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, target)
	if err != nil {
		return err
	}
	row := values.Row()
	if err := book.SetSheetRow(WebOrderSheet, cell, &row); err != nil {
		return fmt.Errorf("write sheet %s: %w", WebOrderSheet, err)
	}
	return book.Save()
}

func (l *ExcelLedgerImpl) FindWebOrderByQuoteNumber(ctx context.Context, quoteNumber string) (models.WebOrderValues, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.open()
	if err != nil {
		return nil, err
	}
	defer book.Close()

	rows, err := book.GetRows(WebOrderSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", WebOrderSheet, err)
	}
	quoteNoCol := models.WebOrderColumnIndex("quote_no")
	for i := 1; i < len(rows); i++ {
		if quoteNumber != "" && cellAt(rows[i], quoteNoCol) == quoteNumber {
			return webOrderFromCells(rows[i]), nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (l *ExcelLedgerImpl) MarkOrderConfirmed(ctx context.Context, orderNo string, cancel bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.open()
	if err != nil {
		return err
	}
	defer book.Close()

	rows, err := book.GetRows(WebOrderSheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", WebOrderSheet, err)
	}

	orderNoCol := models.WebOrderColumnIndex("orderNo")
	target := 0
	for i := 1; i < len(rows); i++ {
		if cellAt(rows[i], orderNoCol) == orderNo {
			target = i + 1
			break
		}
	}
	if target == 0 {
		return models.ErrOrderNotFound
	}

	fill := confirmedFill
	if cancel {
		fill = cancelledFill
	}
	styleID, err := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
	})
	if err != nil {
		return err
	}

	first, err := excelize.CoordinatesToCellName(1, target)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(webOrderHeaders), target)
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(WebOrderSheet, first, last, styleID); err != nil {
		return fmt.Errorf("recolor order row: %w", err)
	}
	return book.Save()
}

// cellAt reads a cell by index; GetRows trims trailing empties.
func cellAt(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

func quoteRowFromCells(cells []string) *models.QuoteRow {
	return &models.QuoteRow{
		Timestamp:     cellAt(cells, 0),
		QuoteNumber:   cellAt(cells, 1),
		UserID:        cellAt(cells, 2),
		UserType:      cellAt(cells, 3),
		UsageLabel:    cellAt(cells, 4),
		Budget:        cellAt(cells, 5),
		Item:          cellAt(cells, 6),
		Quantity:      cellAt(cells, 7),
		PrintPosition: cellAt(cells, 8),
		ColorCount:    cellAt(cells, 9),
		BackName:      cellAt(cells, 10),
		TotalPrice:    cellAt(cells, 11),
		UnitPrice:     cellAt(cells, 12),
		OrderFormURL:  cellAt(cells, 13),
	}
}

func webOrderFromCells(cells []string) models.WebOrderValues {
	values := make(models.WebOrderValues, len(models.WebOrderColumnKeys))
	for i, key := range models.WebOrderColumnKeys {
		if cell := cellAt(cells, i); cell != "" {
			values[key] = cell
		}
	}
	return values
}

// MockOrderLedger is an in-memory OrderLedger for tests.
type MockOrderLedger struct {
	mu              sync.Mutex
	CatalogRequests []models.CatalogRequest
	Quotes          []models.QuoteRow
	WebOrders       []models.WebOrderValues
	OrderStates     map[string]string // orderNo -> "confirmed" | "cancelled"
	Err             error
}

// NewMockOrderLedger creates a mock ledger for testing.
func NewMockOrderLedger() OrderLedger {
	return &MockOrderLedger{OrderStates: make(map[string]string)}
}

func (m *MockOrderLedger) AppendCatalogRequest(ctx context.Context, req models.CatalogRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.CatalogRequests = append(m.CatalogRequests, req)
	return nil
}

func (m *MockOrderLedger) AppendQuote(ctx context.Context, row models.QuoteRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Quotes = append(m.Quotes, row)
	return nil
}

func (m *MockOrderLedger) FindQuoteByNumber(ctx context.Context, quoteNumber string) (*models.QuoteRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Quotes {
		if m.Quotes[i].QuoteNumber == quoteNumber {
			row := m.Quotes[i]
			return &row, nil
		}
	}
	return nil, models.ErrQuoteNotFound
}

func (m *MockOrderLedger) UpsertWebOrder(ctx context.Context, values models.WebOrderValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if orderNo := values["orderNo"]; orderNo != "" {
		for i := range m.WebOrders {
			if m.WebOrders[i]["orderNo"] == orderNo {
				m.WebOrders[i] = values
				return nil
			}
		}
	}
	m.WebOrders = append(m.WebOrders, values)
	return nil
}

func (m *MockOrderLedger) FindWebOrderByQuoteNumber(ctx context.Context, quoteNumber string) (models.WebOrderValues, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, values := range m.WebOrders {
		if quoteNumber != "" && values["quote_no"] == quoteNumber {
			return values, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (m *MockOrderLedger) MarkOrderConfirmed(ctx context.Context, orderNo string, cancel bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	found := false
	for _, values := range m.WebOrders {
		if values["orderNo"] == orderNo {
			found = true
			break
		}
	}
	if !found {
		return models.ErrOrderNotFound
	}
	if m.OrderStates == nil {
		m.OrderStates = make(map[string]string)
	}
	if cancel {
		m.OrderStates[orderNo] = "cancelled"
	} else {
		m.OrderStates[orderNo] = "confirmed"
	}
	return nil
}

var (
	_ OrderLedger = (*ExcelLedgerImpl)(nil)
	_ OrderLedger = (*MockOrderLedger)(nil)
)
