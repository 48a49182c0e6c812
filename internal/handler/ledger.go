package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
)

// LedgerHandler exposes the credit/debit mutations.
type LedgerHandler struct {
	ledger ledgerService
}

func NewLedgerHandler(ledger ledgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type mutationRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Resource string `json:"resource"`
	Memo     string `json:"memo"`
}

func (r mutationRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Currency != "" && !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EUR, USD, or GBP"})
	}
	if r.Resource == "" {
		errs = append(errs, FieldError{Field: "resource", Message: "required"})
	}
	return errs
}

func (r mutationRequest) money() domain.Money {
	cur := domain.Currency(r.Currency)
	if cur == "" {
		cur = domain.DefaultCurrency
	}
	return domain.NewMoney(r.Amount, cur)
}

func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.AddCredit)
}

func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.RemoveCredit)
}

func (h *LedgerHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, amount domain.Money, resource, memo string) error) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := op(r.Context(), req.money(), req.Resource, req.Memo); err != nil {
		logging.FromContext(r.Context()).Error("ledger mutation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), req.Resource)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to read balance after mutation", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Amount:   balance.Amount,
		Currency: string(balance.Currency),
		Display:  balance.Format("en"),
	})
}
