// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/gofiber/fiber/v3"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/config"
)

// SignatureMiddleware validates the X-Line-Signature header the
// Messaging API attaches to every webhook delivery.
type SignatureMiddleware struct {
	channelSecret string
}

// NewSignatureMiddleware creates a new webhook signature middleware
func NewSignatureMiddleware(cfg *config.LineConfig) *SignatureMiddleware {
	return &SignatureMiddleware{
		channelSecret: cfg.ChannelSecret,
	}
}

// Verify checks the request body's HMAC-SHA256 digest against the
// channel secret. With no secret configured (local development) every
// delivery passes through.
func (m *SignatureMiddleware) Verify() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.channelSecret == "" {
			return c.Next()
		}

		signature := c.Get("X-Line-Signature")
		if signature == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Webhook signature is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_WEBHOOK_SIGNATURE",
				},
			})
		}

		mac := hmac.New(sha256.New, []byte(m.channelSecret))
		mac.Write(c.Body())
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Webhook signature mismatch",
				Error: dto.ErrorDetail{
					Code: "INVALID_WEBHOOK_SIGNATURE",
				},
			})
		}

		return c.Next()
	}
}
