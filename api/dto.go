/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Request and response shapes that are not budget records themselves.
  Accounts, outgoings, fund sources, allocations and pay cycles travel as
  their budget types, which already carry the wire format (ISO dates,
  money as plain numbers, flat recurrence fields).

NAMING CONVENTION:
  - *Request: request body types from clients
  - *Response: response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs.
*/
package api

import "github.com/warp/budget-engine/budget"

// FundSourceRequest adds or updates a fund source. Amount is a float on
// the wire; negative and non-finite values are clamped to zero.
type FundSourceRequest struct {
	Name   *string  `json:"name,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// FundsResponse is the ledger with its total.
type FundsResponse struct {
	Sources []budget.FundSource `json:"sources"`
	Total   budget.Money        `json:"total"`
}

// ResetFundsResponse returns the single source left after a reset.
type ResetFundsResponse struct {
	ID    budget.FundSourceID `json:"id"`
	Total budget.Money        `json:"total"`
}

// OccurrencesResponse lists an outgoing's occurrences in a window.
type OccurrencesResponse struct {
	OutgoingID  budget.OutgoingID   `json:"outgoing_id"`
	Period      budget.Period       `json:"period"`
	Occurrences []budget.Occurrence `json:"occurrences"`
	Total       budget.Money        `json:"total"`
}

// PayPeriodResponse is the pay period containing a date.
type PayPeriodResponse struct {
	PayCycle budget.PayCycle `json:"pay_cycle"`
	At       budget.Date     `json:"at"`
	Period   budget.Period   `json:"period"`
	Next     budget.Period   `json:"next"`
	Days     int             `json:"days"`
	Fallback bool            `json:"fallback,omitempty"`
}

// CurrencyDTO carries the currency code.
type CurrencyDTO struct {
	Code string `json:"code"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
