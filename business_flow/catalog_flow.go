package businessflow

import (
	"context"
	"strings"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/services"
	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/utils"
)

// CatalogFlow represents the business flow for catalog mailing
// applications submitted through the public form.
type CatalogFlow interface {
	IssueFormToken(ctx context.Context) (string, error)
	SubmitCatalogRequest(ctx context.Context, req *dto.CatalogFormRequest, metadata *ClientMetadata) error
}

// CatalogFlowImpl implements CatalogFlow interface
type CatalogFlowImpl struct {
	ledger services.OrderLedger
	tokens services.FormTokenService
}

func NewCatalogFlow(ledger services.OrderLedger, tokens services.FormTokenService) CatalogFlow {
	return &CatalogFlowImpl{
		ledger: ledger,
		tokens: tokens,
	}
}

// IssueFormToken mints the hidden one-time token a fresh form embeds.
func (f *CatalogFlowImpl) IssueFormToken(ctx context.Context) (string, error) {
	token, err := f.tokens.Issue(services.TokenPurposeCatalog)
	if err != nil {
		return "", NewBusinessError("CATALOG_TOKEN_ISSUE_FAILED", "Failed to issue catalog form token", err)
	}
	return token, nil
}

// SubmitCatalogRequest redeems the form token and appends the
// application to the catalog sheet.
func (f *CatalogFlowImpl) SubmitCatalogRequest(ctx context.Context, req *dto.CatalogFormRequest, metadata *ClientMetadata) error {
	if req == nil {
		return NewBusinessError("CATALOG_REQUEST_NIL", "Catalog request is nil", nil)
	}
	if err := f.tokens.Consume(req.FormToken, services.TokenPurposeCatalog); err != nil {
		return NewBusinessError("CATALOG_TOKEN_REJECTED", "Catalog form token rejected", err)
	}

	now, err := utils.TokyoNow()
	if err != nil {
		return NewBusinessError("CATALOG_CLOCK_FAILED", "Failed to resolve ledger timezone", err)
	}

	request := models.CatalogRequest{
		Timestamp:   now.Format(utils.LedgerTimestampLayout),
		Name:        strings.TrimSpace(req.Name),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		Address1:    strings.TrimSpace(req.Address1),
		Address2:    strings.TrimSpace(req.Address2),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       strings.TrimSpace(req.Email),
		SNSAccount:  strings.TrimSpace(req.SNSAccount),
		SchoolGrade: strings.TrimSpace(req.SchoolGrade),
		Other:       strings.TrimSpace(req.Other),
	}
	if err := f.ledger.AppendCatalogRequest(ctx, request); err != nil {
		return NewBusinessError("CATALOG_LEDGER_APPEND_FAILED", "Failed to record catalog request", err)
	}
	return nil
}
