package businessflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/services"
	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/pricing"
	"github.com/ymgch/mitsumori/repository"
	"github.com/ymgch/mitsumori/utils"
)

// Chat texts sent outside the step prompts. The wording is fixed copy
// agreed with the shop; do not reflow.
const (
	restartMessage = "入力内容に誤りがあります。もう一度「カンタン見積り」からやり直してください。"

	staffChatReply = "有人チャットに接続いたします。\n" +
		"ご検討中のデザインを画像やイラストでお送りください。\n\n" +
		"※当ショップの営業時間は10：00～18：00となります。\n" +
		"営業時間外のお問い合わせにつきましては確認ができ次第の回答となります。\n" +
		"誠に恐れ入りますが、ご了承くださいませ。\n\n" +
		"その他ご要望などがございましたらメッセージでお送りくださいませ。\n" +
		"よろしくお願い致します。"

	consultDesignReply = "有人チャットに接続いたします。\n" +
		"ご検討中のデザインがございましたら、画像やイラストなどの資料をお送りくださいませ。\n\n" +
		"※当ショップの営業時間は【10:00～19:00】でございます。\n" +
		"営業時間外にいただいたお問い合わせにつきましては、確認でき次第、順次ご対応させていただきます。\n" +
		"何卒ご理解賜りますようお願い申し上げます。\n\n" +
		"その他ご要望やご不明点がございましたら、お気軽にメッセージをお送りくださいませ。\n" +
		"どうぞよろしくお願いいたします。"

	consultPersonalReply = "スタッフによるチャット対応を開始いたします。\n" +
		"ご検討中の商品について、金額やデザインに関するご質問がございましたら、こちらからお気軽にご相談ください。\n\n" +
		"※当ショップの営業時間は【10:00～19:00】です。\n" +
		"営業時間外にいただいたお問い合わせにつきましては、確認でき次第、順次ご対応させていただきます。\n" +
		"あらかじめご了承くださいませ。\n\n" +
		"そのほか、ご要望やご不明点がございましたら、メッセージにてお知らせください。\n" +
		"よろしくお願いいたします。"

	orderConfirmedReplyFmt = "注文番号 %s を確定しました！担当スタッフから追って納期などの詳細をご連絡します。"

	orderHeldReply = "ご注文は保留のままとなりました。別の商品にて再検討される場合はカンタン見積もしくはWEBフォームから再開してください。"
)

const catalogCampaignTextFmt = "🎁➖➖➖➖➖➖➖➖🎁\n" +
	"  ✨カタログ無料プレゼント✨\n" +
	"🎁➖➖➖➖➖➖➖➖🎁\n\n" +
	"クラスTシャツの最新デザインやトレンド情報が詰まったカタログを、期間限定で無料でお届けします✨\n\n" +
	"【応募方法】\n" +
	"以下のアカウントをフォロー👇\n" +
	"（どちらかでOK🙆）\n" +
	"📸 Instagram\n" +
	"https://www.instagram.com/graffitees_045/\n" +
	"🎥 TikTok\n" +
	"https://www.tiktok.com/@graffitees_045\n\n" +
	"フォロー後、下記のフォームからお申込みください👇\n" +
	"📩 カタログ申込みフォーム\n" +
	"%s\n" +
	"⚠️ 注意：サブアカウントや重複申込みはご遠慮ください。\n\n" +
	"【カタログ発送時期】\n" +
	"📅 2025年4月中旬より郵送で発送予定です。\n\n" +
	"【配布数について】\n" +
	"先着300名様分を予定しています。\n" +
	"※応募多数となった場合、配布数の増加や抽選となる可能性があります。\n\n" +
	"ご応募お待ちしております🙆"

// EstimateFlow represents the business flow for chat-driven quote
// estimation: flow triggers, step answers, and the postbacks attached
// to quote results and order confirmations.
type EstimateFlow interface {
	HandleMessage(ctx context.Context, req *dto.IncomingMessage, metadata *ClientMetadata) error
	HandlePostback(ctx context.Context, req *dto.IncomingPostback, metadata *ClientMetadata) error
}

// EstimateFlowImpl implements EstimateFlow interface
type EstimateFlowImpl struct {
	sessionRepo   repository.SessionRepository
	engine        *pricing.Engine
	ledger        services.OrderLedger
	lineClient    services.LineClient
	env           PromptEnv
	publicBaseURL string
	quoteNumbers  *quoteNumberSource
	locks         *userLocks
}

func NewEstimateFlow(
	sessionRepo repository.SessionRepository,
	engine *pricing.Engine,
	ledger services.OrderLedger,
	lineClient services.LineClient,
	lineCfg *config.LineConfig,
	formsCfg *config.FormsConfig,
) EstimateFlow {
	return &EstimateFlowImpl{
		sessionRepo:   sessionRepo,
		engine:        engine,
		ledger:        ledger,
		lineClient:    lineClient,
		env:           PromptEnv{ImageBaseURL: lineCfg.ImageBaseURL},
		publicBaseURL: strings.TrimSuffix(formsCfg.PublicBaseURL, "/"),
		quoteNumbers:  &quoteNumberSource{},
		locks:         newUserLocks(),
	}
}

// HandleMessage routes one text message. Precedence: fixed replies,
// then an in-progress flow, then flow triggers, then the catalog
// campaign; anything else is ignored without a reply.
func (f *EstimateFlowImpl) HandleMessage(ctx context.Context, req *dto.IncomingMessage, metadata *ClientMetadata) error {
	if req == nil || req.UserID == "" {
		return NewBusinessError("ESTIMATE_MESSAGE_INVALID", "Message event is missing its sender", ErrEmptyUserID)
	}
	text := strings.TrimSpace(req.Text)

	unlock := f.locks.lock(req.UserID)
	defer unlock()

	if text == "お問い合わせ" {
		return f.lineClient.Reply(ctx, req.ReplyToken, services.InquiryCarousel(f.env.ImageBaseURL))
	}

	if text == "#有人チャット" {
		return f.lineClient.Reply(ctx, req.ReplyToken, services.NewTextMessage(staffChatReply))
	}

	// A flow in progress consumes the message, triggers included: a
	// trigger sent mid-flow counts as a wrong answer.
	session, err := f.sessionRepo.Get(ctx, req.UserID)
	if err == nil && session.Step > 0 {
		return f.processStep(ctx, session, req, text)
	}
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return NewBusinessError("ESTIMATE_SESSION_LOAD_FAILED", "Failed to load quote session", err)
	}

	if flow, ok := FlowByTrigger(text); ok {
		return f.startFlow(ctx, flow, req)
	}

	if strings.Contains(text, "キャンペーン") || strings.Contains(strings.ToLower(text), "catalog") {
		campaign := fmt.Sprintf(catalogCampaignTextFmt, f.publicBaseURL+"/catalog_form")
		return f.lineClient.Reply(ctx, req.ReplyToken, services.NewTextMessage(campaign))
	}

	return nil
}

func (f *EstimateFlowImpl) startFlow(ctx context.Context, flow *FlowDefinition, req *dto.IncomingMessage) error {
	session, err := f.sessionRepo.Start(ctx, req.UserID, flow.ID)
	if err != nil {
		return NewBusinessError("ESTIMATE_SESSION_START_FAILED", "Failed to start quote session", err)
	}
	return f.lineClient.Reply(ctx, req.ReplyToken, flow.Steps[0].Prompt(f.env, session.Answers))
}

func (f *EstimateFlowImpl) processStep(ctx context.Context, session *models.QuoteSession, req *dto.IncomingMessage, answer string) error {
	flow, ok := FlowByID(session.FlowID)
	if !ok || session.Step > len(flow.Steps) {
		// Stale session from an older build: end it and ask for a
		// fresh start.
		if err := f.sessionRepo.Invalidate(ctx, req.UserID); err != nil {
			return NewBusinessError("ESTIMATE_SESSION_INVALIDATE_FAILED", "Failed to end quote session", err)
		}
		return f.replyRestart(ctx, req.ReplyToken)
	}

	step := flow.Steps[session.Step-1]
	if !containsChoice(step.Choices(session.Answers), answer) {
		// One wrong answer ends the whole flow; there is no retry.
		if err := f.sessionRepo.Invalidate(ctx, req.UserID); err != nil {
			return NewBusinessError("ESTIMATE_SESSION_INVALIDATE_FAILED", "Failed to end quote session", err)
		}
		return f.replyRestart(ctx, req.ReplyToken)
	}

	session.SetAnswer(step.Field, answer)
	if step.Derive != nil {
		step.Derive(session, answer)
	}

	if session.Step == len(flow.Steps) {
		return f.completeFlow(ctx, flow, session, req)
	}

	session.Step++
	if err := f.sessionRepo.Advance(ctx, session); err != nil {
		return NewBusinessError("ESTIMATE_SESSION_SAVE_FAILED", "Failed to save quote session", err)
	}
	next := flow.Steps[session.Step-1]
	return f.lineClient.Reply(ctx, req.ReplyToken, next.Prompt(f.env, session.Answers))
}

// completeFlow prices the collected answers, records the quote, and
// replies with the result bubble carrying the consult buttons.
func (f *EstimateFlowImpl) completeFlow(ctx context.Context, flow *FlowDefinition, session *models.QuoteSession, req *dto.IncomingMessage) error {
	if flow.Finalize != nil {
		flow.Finalize(session)
	}
	if _, err := f.sessionRepo.Complete(ctx, req.UserID); err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return NewBusinessError("ESTIMATE_SESSION_COMPLETE_FAILED", "Failed to close quote session", err)
	}

	answers := session.Answers
	var result *models.QuoteResult
	if flow.ID == FlowPattern {
		result = f.engine.PricePatternOrZero(answers)
	} else {
		result = f.engine.PriceOrZero(answers)
	}

	now, err := utils.TokyoNow()
	if err != nil {
		return NewBusinessError("ESTIMATE_CLOCK_FAILED", "Failed to resolve ledger timezone", err)
	}
	quoteNumber := f.quoteNumbers.next(now)
	orderURL := fmt.Sprintf("%s/web_order_form?quote_no=%s&uid=%s",
		f.publicBaseURL, quoteNumber, url.QueryEscape(req.UserID))

	row := models.QuoteRow{
		Timestamp:     now.Format(utils.LedgerTimestampLayout),
		QuoteNumber:   quoteNumber,
		UserID:        req.UserID,
		UserType:      answers[models.FieldUserType],
		UsageLabel:    fmt.Sprintf("%s(%s)", answers[models.FieldUsageDate], result.DiscountType),
		Budget:        answers[models.FieldBudget],
		Item:          result.Item,
		Quantity:      result.QuantityLabel,
		PrintPosition: answers[models.FieldPrintPosition],
		ColorCount:    answers[models.FieldColorCount],
		BackName:      answers[models.FieldBackName],
		TotalPrice:    "¥" + utils.FormatYen(result.TotalPrice),
		UnitPrice:     "¥" + utils.FormatYen(result.UnitPrice),
		OrderFormURL:  orderURL,
	}
	if err := f.ledger.AppendQuote(ctx, row); err != nil {
		return NewBusinessError("ESTIMATE_LEDGER_APPEND_FAILED", "Failed to record quote", err)
	}

	var flex services.Message
	if flow.ID == FlowPattern {
		flex = services.PatternResultFlex(f.env.ImageBaseURL, result, answers)
	} else {
		flex = services.QuoteResultFlex(f.env.ImageBaseURL, result, answers)
	}
	return f.lineClient.Reply(ctx, req.ReplyToken, flex)
}

func (f *EstimateFlowImpl) replyRestart(ctx context.Context, replyToken string) error {
	return f.lineClient.Reply(ctx, replyToken, services.NewTextMessage(restartMessage))
}

// HandlePostback serves the buttons attached to quote results and
// order confirmations. Unknown payloads are ignored.
func (f *EstimateFlowImpl) HandlePostback(ctx context.Context, req *dto.IncomingPostback, metadata *ClientMetadata) error {
	if req == nil || req.UserID == "" {
		return NewBusinessError("ESTIMATE_POSTBACK_INVALID", "Postback event is missing its sender", ErrEmptyUserID)
	}
	data := strings.TrimSpace(req.Data)

	switch {
	case data == services.PostbackConsultDesign:
		return f.lineClient.Reply(ctx, req.ReplyToken, services.NewTextMessage(consultDesignReply))

	case data == services.PostbackConsultPersonal:
		return f.lineClient.Reply(ctx, req.ReplyToken, services.NewTextMessage(consultPersonalReply))

	case strings.HasPrefix(data, services.PostbackConfirmOrderPrefix):
		return f.markOrder(ctx, req, strings.TrimPrefix(data, services.PostbackConfirmOrderPrefix), false)

	case strings.HasPrefix(data, services.PostbackCancelOrderPrefix):
		return f.markOrder(ctx, req, strings.TrimPrefix(data, services.PostbackCancelOrderPrefix), true)

	case data == services.PostbackWebOrder:
		formURL := fmt.Sprintf("%s/web_order_form?uid=%s", f.publicBaseURL, url.QueryEscape(req.UserID))
		return f.lineClient.Reply(ctx, req.ReplyToken, services.WebOrderFormFlex(formURL))
	}

	return nil
}

func (f *EstimateFlowImpl) markOrder(ctx context.Context, req *dto.IncomingPostback, orderNo string, cancel bool) error {
	err := f.ledger.MarkOrderConfirmed(ctx, orderNo, cancel)
	if err != nil && !errors.Is(err, models.ErrOrderNotFound) {
		return NewBusinessError("ORDER_MARK_FAILED", "Failed to update order state", err)
	}
	// An unknown number still gets the reply; staff reconcile from the
	// sheet.

	text := orderHeldReply
	if !cancel {
		text = fmt.Sprintf(orderConfirmedReplyFmt, orderNo)
	}
	return f.lineClient.Reply(ctx, req.ReplyToken, services.NewTextMessage(text))
}

func containsChoice(choices []string, answer string) bool {
	for _, c := range choices {
		if c == answer {
			return true
		}
	}
	return false
}
