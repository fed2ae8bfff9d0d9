// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/middleware"
	businessflow "github.com/ymgch/mitsumori/business_flow"
)

// WebhookHandlerInterface defines the contract for LINE webhook handlers
type WebhookHandlerInterface interface {
	Callback(c fiber.Ctx) error
}

// WebhookHandler handles event deliveries from the LINE platform
type WebhookHandler struct {
	estimateFlow businessflow.EstimateFlow
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(estimateFlow businessflow.EstimateFlow) *WebhookHandler {
	return &WebhookHandler{
		estimateFlow: estimateFlow,
	}
}

// Callback handles a webhook delivery from the Messaging API
// @Summary LINE webhook callback
// @Description Receive message and postback events from the LINE platform
// @Tags Webhook
// @Accept json
// @Produce plain
// @Param request body dto.WebhookRequest true "Webhook event envelope"
// @Success 200 {string} string "OK"
// @Failure 400 {object} dto.APIResponse "Malformed webhook body"
// @Router /line/callback [post]
func (h *WebhookHandler) Callback(c fiber.Ctx) error {
	var req dto.WebhookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid webhook body", "INVALID_REQUEST", err.Error())
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := range req.Events {
		event := &req.Events[i]
		middleware.CountWebhookEvent(event.Type)

		switch {
		case event.Type == "message" && event.Message != nil && event.Message.Type == "text":
			msg := &dto.IncomingMessage{
				UserID:     senderID(event.Source),
				ReplyToken: event.ReplyToken,
				Text:       event.Message.Text,
			}
			if err := h.estimateFlow.HandleMessage(ctx, msg, metadata); err != nil {
				log.Println("Webhook message handling failed", err)
			}
		case event.Type == "postback" && event.Postback != nil:
			pb := &dto.IncomingPostback{
				UserID:     senderID(event.Source),
				ReplyToken: event.ReplyToken,
				Data:       event.Postback.Data,
			}
			if err := h.estimateFlow.HandlePostback(ctx, pb, metadata); err != nil {
				log.Println("Webhook postback handling failed", err)
			}
		}
	}

	// The platform retries deliveries on non-2xx responses, so per-event
	// failures are logged instead of surfaced.
	return c.Status(fiber.StatusOK).SendString("OK")
}

func senderID(source *dto.EventSource) string {
	if source == nil {
		return ""
	}
	return source.UserID
}
