/*
dto.go - Request and response bodies for the treasury API

NAMING CONVENTION:
  - *Request: request body types from clients
  - *Response: response wrappers
  - *DTO: small response records

Domain types (receipts, expenses, arqueos, reconciliations) already carry
JSON tags and are returned as they are. Input validation lives in the
treasury package (ReceiptInput, ExpenseInput, BalanceInput).

SEE ALSO:
  - handlers.go: uses these types
  - treasury/validation.go: input types and rules
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/treasury-engine/report"
	"github.com/warp/treasury-engine/treasury"
)

// DeleteRequest lists the IDs removed in one bulk delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BalanceRequest is the body of PUT /api/balances/{period}.
type BalanceRequest struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

type SaveArqueoRequest struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// ExportResponse is an exported arqueo with its report document.
type ExportResponse struct {
	treasury.Export
	Document report.Document `json:"document"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
