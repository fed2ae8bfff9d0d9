package dto

import "github.com/ymgch/mitsumori/models"

// CatalogFormRequest represents the catalog mailing application form
type CatalogFormRequest struct {
	FormToken string `form:"form_token" json:"form_token" validate:"required"`

	Name       string `form:"name" json:"name" validate:"required,max=100"`
	PostalCode string `form:"postal_code" json:"postal_code" validate:"required,max=8"`
	Address1   string `form:"address_1" json:"address_1" validate:"required,max=255"`
	Address2   string `form:"address_2" json:"address_2" validate:"required,max=255"`
	Phone      string `form:"phone" json:"phone" validate:"required,max=20"`
	Email      string `form:"email" json:"email" validate:"required,email,max=255"`
	SNSAccount string `form:"sns_account" json:"sns_account" validate:"required,max=100"`

	SchoolGrade string `form:"school_grade" json:"school_grade" validate:"omitempty,max=255"`
	Other       string `form:"other" json:"other" validate:"omitempty,max=1000"`
}

// WebOrderFormRequest is a parsed order form submission. Values holds
// known sheet columns only; the LINE user ID and submit mode ride
// outside the sheet row.
type WebOrderFormRequest struct {
	Values     models.WebOrderValues `json:"values"`
	SubmitMode string                `json:"submit_mode"`
	LineUserID string                `json:"line_user_id"`
}
