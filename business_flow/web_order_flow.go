package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/services"
	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/pricing"
	"github.com/ymgch/mitsumori/utils"
)

// Submit modes of the order form. A draft saves the row for later
// editing; a final submission validates required fields and notifies
// the customer over LINE.
const (
	SubmitModeDraft = "draft"
	SubmitModeFinal = "final"
)

// WebOrderReceipt is the outcome of an order form submission.
type WebOrderReceipt struct {
	OrderNo    string
	SubmitMode string
	Result     *models.QuoteResult
	Message    string
}

// WebOrderFlow backs the web order form: prefilling it from an earlier
// quote and handling draft and final submissions.
type WebOrderFlow interface {
	PrefillForm(ctx context.Context, quoteNo string) (models.WebOrderValues, error)
	SubmitOrder(ctx context.Context, req *dto.WebOrderFormRequest, metadata *ClientMetadata) (*WebOrderReceipt, error)
}

// WebOrderFlowImpl implements WebOrderFlow on the shared order ledger.
type WebOrderFlowImpl struct {
	ledger     services.OrderLedger
	engine     *pricing.Engine
	lineClient services.LineClient
}

// NewWebOrderFlow creates a new web order flow.
func NewWebOrderFlow(
	ledger services.OrderLedger,
	engine *pricing.Engine,
	lineClient services.LineClient,
) WebOrderFlow {
	return &WebOrderFlowImpl{
		ledger:     ledger,
		engine:     engine,
		lineClient: lineClient,
	}
}

// PrefillForm resolves the initial form values for a quote number. A
// previously saved order row wins over the quote row, so reopening the
// form shows the customer's own edits rather than the bot's answers.
// An unknown or empty quote number yields an empty form.
func (f *WebOrderFlowImpl) PrefillForm(ctx context.Context, quoteNo string) (models.WebOrderValues, error) {
	if quoteNo == "" {
		return models.WebOrderValues{}, nil
	}

	values, err := f.ledger.FindWebOrderByQuoteNumber(ctx, quoteNo)
	if err == nil {
		return values, nil
	}
	if !errors.Is(err, models.ErrOrderNotFound) {
		return nil, NewBusinessError("WEB_ORDER_PREFILL_FAILED", "failed to load saved order", err)
	}

	quote, err := f.ledger.FindQuoteByNumber(ctx, quoteNo)
	if err != nil {
		if errors.Is(err, models.ErrQuoteNotFound) {
			return models.WebOrderValues{}, nil
		}
		return nil, NewBusinessError("WEB_ORDER_PREFILL_FAILED", "failed to load quote", err)
	}

	// quantity, print_position, color_count and back_name are display
	// hints for the form header, not sheet columns.
	return models.WebOrderValues{
		"quote_no":       quoteNo,
		"productName":    quote.Item,
		"quantity":       quote.Quantity,
		"print_position": quote.PrintPosition,
		"color_count":    quote.ColorCount,
		"back_name":      quote.BackName,
	}, nil
}

// SubmitOrder prices and saves one order form post. Draft and final
// submissions share an order number, so the final write replaces the
// draft row. On a final submission with a known LINE user the customer
// receives a confirm message with the full summary.
func (f *WebOrderFlowImpl) SubmitOrder(ctx context.Context, req *dto.WebOrderFormRequest, metadata *ClientMetadata) (*WebOrderReceipt, error) {
	if req == nil || req.Values == nil {
		return nil, NewBusinessError("WEB_ORDER_REQUEST_NIL", "web order request is required", nil)
	}

	mode := req.SubmitMode
	if mode == "" {
		mode = SubmitModeFinal
	}
	if mode != SubmitModeDraft && mode != SubmitModeFinal {
		return nil, NewBusinessError("WEB_ORDER_MODE_INVALID", "unknown submit mode: "+mode, ErrUnknownSubmitMode)
	}

	now, err := utils.TokyoNow()
	if err != nil {
		return nil, NewBusinessError("WEB_ORDER_CLOCK_FAILED", "failed to resolve ledger timezone", err)
	}

	values := req.Values
	orderNo := values["orderNo"]
	if orderNo == "" {
		orderNo = now.Format(utils.OrderNumberLayout)
		values["orderNo"] = orderNo
	}
	values["timestamp"] = now.Format(utils.LedgerTimestampLayout)

	if mode == SubmitModeFinal {
		if field := values.MissingRequired(); field != "" {
			return nil, NewBusinessErrorf("WEB_ORDER_FIELD_MISSING", "必須項目が未入力です：%s", ErrMissingRequiredField, field)
		}
	}

	// Drafts are priced too; an incomplete form just prices to zero.
	result := f.engine.PriceWebOrder(values)
	values["unitPrice"] = strconv.Itoa(result.UnitPrice)
	values["totalPrice"] = strconv.Itoa(result.TotalPrice)

	if err := f.ledger.UpsertWebOrder(ctx, values); err != nil {
		return nil, NewBusinessError("WEB_ORDER_SAVE_FAILED", "failed to save order", err)
	}

	message := "保存が完了しました。"
	if mode == SubmitModeFinal {
		message = "注文を受け付けました！"

		if req.LineUserID != "" {
			// The row is saved before the push; a notify failure does
			// not lose the order.
			summary := buildOrderSummary(orderNo, values, result)
			confirm := services.OrderConfirmFlex(orderNo, summary)
			if err := f.lineClient.Push(ctx, req.LineUserID, confirm); err != nil {
				return nil, NewBusinessError("WEB_ORDER_NOTIFY_FAILED", "failed to push order confirmation", err)
			}
		}
	}

	return &WebOrderReceipt{
		OrderNo:    orderNo,
		SubmitMode: mode,
		Result:     result,
		Message:    message,
	}, nil
}

// buildOrderSummary renders the confirmation text pushed with the
// confirm buttons: per-size counts, per-position print colors and the
// unit price breakdown.
func buildOrderSummary(orderNo string, values models.WebOrderValues, result *models.QuoteResult) string {
	sizeFields := []struct{ label, key string }{
		{"150", "size150"},
		{"SS", "sizeSS"},
		{"S", "sizeS"},
		{"M", "sizeM"},
		{"L(F)", "sizeL"},
		{"LL(XL)", "sizeXL"},
		{"3L", "sizeXXL"},
	}
	sizes := make([]string, 0, len(sizeFields))
	for _, s := range sizeFields {
		if v := values[s.key]; v != "" && v != "0" {
			sizes = append(sizes, fmt.Sprintf("%s:%s枚", s.label, v))
		}
	}

	positions := make([]string, 0, 4)
	for p := 1; p <= 4; p++ {
		pos := values[fmt.Sprintf("printPositionNo%d", p)]
		if pos == "" {
			continue
		}
		colors := make([]string, 0, 3)
		for i := 1; i <= 3; i++ {
			if c := values[fmt.Sprintf("printColorOption%d_%d", p, i)]; c != "" {
				colors = append(colors, c)
			}
		}
		positions = append(positions, fmt.Sprintf("%dか所目 (%s) : %s", p, pos, strings.Join(colors, ", ")))
	}
	posBlock := "—"
	if len(positions) > 0 {
		posBlock = strings.Join(positions, "\n")
	}

	breakdown := fmt.Sprintf(
		"  ベース価格          ¥%s\n"+
			"  位置追加            +¥%s\n"+
			"  色追加              +¥%s\n"+
			"  背ネーム・番号      +¥%s\n"+
			"  -------------------------------\n"+
			"  単価               ¥%s\n"+
			"  合計（%d枚）   ¥%s",
		utils.FormatYen(result.BaseUnit),
		utils.FormatYen(result.PositionFee),
		utils.FormatYen(result.ColorFee),
		utils.FormatYen(result.BackNameFee),
		utils.FormatYen(result.UnitPrice),
		result.Quantity,
		utils.FormatYen(result.TotalPrice),
	)

	return fmt.Sprintf(
		"ご注文ありがとうございます。\n\n"+
			"注文番号: %s\n"+
			"商品: %s\n"+
			"商品カラー: %s\n"+
			"サイズ別枚数: %s\n"+
			"合計枚数: %d 枚\n\n"+
			"【プリントカラー】\n"+
			"%s\n\n"+
			"【価格内訳（1枚あたり）】\n"+
			"%s\n\n"+
			"※納期は注文確定後に担当スタッフから連絡をします。",
		orderNo,
		values["productName"],
		values["colorName"],
		strings.Join(sizes, ", "),
		result.Quantity,
		posBlock,
		breakdown,
	)
}
