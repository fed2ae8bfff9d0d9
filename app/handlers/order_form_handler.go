// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/middleware"
	businessflow "github.com/ymgch/mitsumori/business_flow"
	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/models"
)

//go:embed templates/web_order_form.html
var webOrderFormHTML string

var webOrderFormTemplate = template.Must(template.New("web_order_form").Parse(webOrderFormHTML))

const webOrderFailurePrefix = "エラーが発生しました: "

// OrderFormHandlerInterface defines the contract for web order form handlers
type OrderFormHandlerInterface interface {
	ShowForm(c fiber.Ctx) error
	SubmitForm(c fiber.Ctx) error
}

// OrderFormHandler serves the web order form and its submissions
type OrderFormHandler struct {
	webOrderFlow businessflow.WebOrderFlow
	liffID       string
}

// NewOrderFormHandler creates a new web order form handler
func NewOrderFormHandler(webOrderFlow businessflow.WebOrderFlow, lineConfig *config.LineConfig) *OrderFormHandler {
	return &OrderFormHandler{
		webOrderFlow: webOrderFlow,
		liffID:       lineConfig.LiffID,
	}
}

// ShowForm renders the order form, prefilled from a saved draft or a
// quote row when a quote number rides the query string.
func (h *OrderFormHandler) ShowForm(c fiber.Ctx) error {
	quoteNo := strings.TrimSpace(c.Query("quote_no"))
	uid := strings.TrimSpace(c.Query("uid"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	initial, err := h.webOrderFlow.PrefillForm(ctx, quoteNo)
	if err != nil {
		// An unreadable ledger degrades to a blank form.
		log.Println("Web order prefill failed", err)
		initial = models.WebOrderValues{}
	}

	var buf bytes.Buffer
	data := fiber.Map{
		"Token":       uuid.New().String(),
		"LiffID":      h.liffID,
		"QuoteNo":     quoteNo,
		"UID":         uid,
		"InitialData": initial,
		"Positions":   []int{1, 2, 3, 4},
	}
	if err := webOrderFormTemplate.Execute(&buf, data); err != nil {
		log.Println("Web order form rendering failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString(webOrderFailurePrefix + err.Error())
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// SubmitForm saves an order form submission as a draft or a confirmed
// order depending on which submit button was pressed
func (h *OrderFormHandler) SubmitForm(c fiber.Ctx) error {
	values := models.WebOrderValues{}
	for _, key := range models.WebOrderColumnKeys {
		if v := strings.TrimSpace(c.FormValue(key)); v != "" {
			values[key] = v
		}
	}

	req := &dto.WebOrderFormRequest{
		Values:     values,
		SubmitMode: strings.TrimSpace(c.FormValue("submit_mode")),
		LineUserID: strings.TrimSpace(c.FormValue("lineUserId")),
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	receipt, err := h.webOrderFlow.SubmitOrder(ctx, req, metadata)
	if err != nil {
		if businessflow.IsMissingRequiredField(err) {
			var bizErr *businessflow.BusinessError
			if errors.As(err, &bizErr) {
				return c.Status(fiber.StatusBadRequest).SendString(bizErr.Message)
			}
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		if errors.Is(err, businessflow.ErrUnknownSubmitMode) {
			return c.Status(fiber.StatusBadRequest).SendString("不正な送信モードです。")
		}

		log.Println("Web order submission failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString(webOrderFailurePrefix + err.Error())
	}

	middleware.CountWebOrder(receipt.SubmitMode)
	return c.Status(fiber.StatusOK).SendString(receipt.Message)
}
