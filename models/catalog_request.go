package models

// CatalogRequest is one catalog mailing application as persisted to the
// CatalogRequests sheet. Address1 and Address2 are merged into a single
// cell on append, matching the sheet layout.
type CatalogRequest struct {
	Timestamp   string `json:"timestamp"`
	Name        string `json:"name"`
	PostalCode  string `json:"postal_code"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	SNSAccount  string `json:"sns_account"`
	SchoolGrade string `json:"school_grade"`
	Other       string `json:"other"`
}

// FullAddress merges the two address parts into the sheet's single
// address cell.
func (r CatalogRequest) FullAddress() string {
	switch {
	case r.Address1 == "":
		return r.Address2
	case r.Address2 == "":
		return r.Address1
	default:
		return r.Address1 + " " + r.Address2
	}
}

// Values returns the row cells in header order.
func (r CatalogRequest) Values() []any {
	return []any{
		r.Timestamp, r.Name, r.PostalCode, r.FullAddress(),
		r.Phone, r.Email, r.SNSAccount, r.SchoolGrade, r.Other,
	}
}
