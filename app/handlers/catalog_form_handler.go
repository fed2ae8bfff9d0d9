// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/middleware"
	businessflow "github.com/ymgch/mitsumori/business_flow"
)

//go:embed templates/catalog_form.html
var catalogFormHTML string

var catalogFormTemplate = template.Must(template.New("catalog_form").Parse(catalogFormHTML))

// Browser-facing responses for the catalog form. The wording matches
// what the shop staff expect to see quoted back in support chats.
const (
	catalogFormRejectedReply = "二重送信、あるいは不正なリクエストです。"
	catalogFormAcceptedReply = "フォーム送信ありがとうございました！ カタログ送付をお待ちください。"
	catalogFormFailurePrefix = "エラーが発生しました: "
)

// CatalogFormHandlerInterface defines the contract for catalog form handlers
type CatalogFormHandlerInterface interface {
	ShowForm(c fiber.Ctx) error
	SubmitForm(c fiber.Ctx) error
}

// CatalogFormHandler serves the catalog mailing application form
type CatalogFormHandler struct {
	catalogFlow businessflow.CatalogFlow
	validator   *validator.Validate
}

// NewCatalogFormHandler creates a new catalog form handler
func NewCatalogFormHandler(catalogFlow businessflow.CatalogFlow) *CatalogFormHandler {
	return &CatalogFormHandler{
		catalogFlow: catalogFlow,
		validator:   validator.New(),
	}
}

// ShowForm renders the catalog application form with a fresh one-time token
func (h *CatalogFormHandler) ShowForm(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := h.catalogFlow.IssueFormToken(ctx)
	if err != nil {
		log.Println("Catalog form token issuance failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString(catalogFormFailurePrefix + err.Error())
	}

	var buf bytes.Buffer
	if err := catalogFormTemplate.Execute(&buf, fiber.Map{"Token": token}); err != nil {
		log.Println("Catalog form rendering failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString(catalogFormFailurePrefix + err.Error())
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// SubmitForm validates a catalog application and records it in the ledger
func (h *CatalogFormHandler) SubmitForm(c fiber.Ctx) error {
	var req dto.CatalogFormRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(catalogFormRejectedReply)
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return c.Status(fiber.StatusBadRequest).SendString(strings.Join(validationErrors, "\n"))
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.catalogFlow.SubmitCatalogRequest(ctx, &req, metadata); err != nil {
		if businessflow.IsFormTokenRejected(err) {
			return c.Status(fiber.StatusBadRequest).SendString(catalogFormRejectedReply)
		}

		log.Println("Catalog request submission failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString(catalogFormFailurePrefix + err.Error())
	}

	middleware.CountCatalogRequest()
	return c.Status(fiber.StatusOK).SendString(catalogFormAcceptedReply)
}
