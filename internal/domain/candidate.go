package domain

import "time"

// Candidate holds the recipient-facing profile fields consumed read-only
// by the dispatcher and the interview coordinator. The full candidate
// profile lives elsewhere in the product.
type Candidate struct {
	ID             string `json:"id" db:"id"`
	CompanyID      string `json:"company_id" db:"company_id"`
	FirstName      string `json:"first_name" db:"first_name"`
	LastName       string `json:"last_name" db:"last_name"`
	Email          string `json:"email" db:"email"`
	CurrentCompany string `json:"current_company" db:"current_company"`
	CurrentTitle   string `json:"current_title" db:"current_title"`
	Location       string `json:"location" db:"location"`
}

// FullName joins first and last name, tolerating either being empty.
func (c Candidate) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// EmailAccount is a per-company sending identity. The dispatcher resolves
// one of these for every campaign: explicit account, else the company
// default, else any active outbound-capable account.
type EmailAccount struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Email     string    `json:"email" db:"email"`
	FromName  string    `json:"from_name" db:"from_name"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	Active    bool      `json:"active" db:"active"`
	Outbound  bool      `json:"outbound" db:"outbound"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
