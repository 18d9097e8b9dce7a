package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// FieldResponse is one required enrollment field.
type FieldResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ProviderResponse is the JSON representation of a catalog entry.
type ProviderResponse struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	DisplayName       string          `json:"display_name"`
	ExpireAfterMonths int             `json:"expire_after_months"`
	Note              string          `json:"note,omitempty"`
	Fields            []FieldResponse `json:"fields"`
}

// BalanceResponse is one account line of the latest-balances view.
type BalanceResponse struct {
	AccountID  int64  `json:"account_id"`
	Provider   string `json:"provider"`
	Identity   string `json:"identity"`
	Balance    int    `json:"balance"`
	ExpireDate string `json:"expire_date"`
	Updated    string `json:"updated"`
}

// CategoryResponse groups balances under a category.
type CategoryResponse struct {
	Category string            `json:"category"`
	Accounts []BalanceResponse `json:"accounts"`
}

// HistoryEntryResponse is one day of an account's history.
type HistoryEntryResponse struct {
	Date    string `json:"date"`
	Balance int    `json:"balance"`
}

// EnrollRequest is the JSON body for the enroll endpoint.
type EnrollRequest struct {
	Provider string            `json:"provider"`
	Fields   map[string]string `json:"fields"`
}

// EnrollResponse reports a new account and its first refresh.
type EnrollResponse struct {
	AccountID int64           `json:"account_id"`
	Refresh   RefreshResponse `json:"refresh"`
}

// RefreshResponse is the outcome of refreshing one account.
type RefreshResponse struct {
	AccountID  int64   `json:"account_id"`
	Provider   string  `json:"provider"`
	Identity   string  `json:"identity"`
	OK         bool    `json:"ok"`
	Balance    int     `json:"balance,omitempty"`
	ExpireDate *string `json:"expire_date,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func toProviderResponse(p model.ProviderDefinition) ProviderResponse {
	fields := make([]FieldResponse, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, FieldResponse{Name: f.Name, Label: f.Label})
	}
	return ProviderResponse{
		Name:              p.Name,
		Category:          p.Category,
		DisplayName:       p.DisplayName(),
		ExpireAfterMonths: p.ExpireAfterMonths,
		Note:              p.Note,
		Fields:            fields,
	}
}

func toCategoryResponse(c model.CategoryBalances) CategoryResponse {
	accounts := make([]BalanceResponse, 0, len(c.Rows))
	for _, r := range c.Rows {
		accounts = append(accounts, BalanceResponse{
			AccountID:  r.AccountID,
			Provider:   r.Provider,
			Identity:   r.Identity,
			Balance:    r.Balance,
			ExpireDate: r.ExpireDisplay(),
			Updated:    r.Updated.Format(model.DateLayout),
		})
	}
	return CategoryResponse{Category: c.Category, Accounts: accounts}
}

func toHistoryResponse(entries []model.HistoryEntry) []HistoryEntryResponse {
	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, HistoryEntryResponse{Date: e.Date.Format(model.DateLayout), Balance: e.Balance})
	}
	return resp
}

func toRefreshResponse(o model.RefreshOutcome) RefreshResponse {
	resp := RefreshResponse{
		AccountID: o.AccountID,
		Provider:  o.Provider,
		Identity:  o.Identity,
		OK:        o.OK(),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
		return resp
	}
	resp.Balance = o.Balance
	resp.ExpireDate = formatDate(o.ExpireDate)
	return resp
}

func toEnrollResponse(r *application.EnrollResult) EnrollResponse {
	return EnrollResponse{AccountID: r.AccountID, Refresh: toRefreshResponse(r.Refresh)}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}
