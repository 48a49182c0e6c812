package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
)

type ledgerService interface {
	GetAccount(ctx context.Context, resource string) (*domain.Account, error)
	CreateAccount(ctx context.Context, resource string, initialBalance *domain.Money) (*domain.Account, error)
	AddCredit(ctx context.Context, amount domain.Money, resource, memo string) error
	RemoveCredit(ctx context.Context, amount domain.Money, resource, memo string) error
	GetBalance(ctx context.Context, resource string) (domain.Money, error)
	Entries(ctx context.Context, resource string) ([]domain.LedgerEntry, error)
}

type AccountHandler struct {
	ledger ledgerService
}

func NewAccountHandler(ledger ledgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type createAccountRequest struct {
	Resource       string `json:"resource"`
	InitialBalance *int64 `json:"initial_balance"`
	Currency       string `json:"currency"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Resource == "" {
		errs = append(errs, FieldError{Field: "resource", Message: "required"})
	}
	if r.Currency != "" && !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EUR, USD, or GBP"})
	}
	if r.InitialBalance != nil && *r.InitialBalance <= 0 {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must be greater than 0"})
	}
	return errs
}

type accountDTO struct {
	ID          string    `json:"id"`
	Resource    string    `json:"resource"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Reference   string    `json:"reference"`
	Balance     int64     `json:"balance"`
	CreditLimit int64     `json:"credit_limit"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:          a.ID,
		Resource:    a.Resource,
		Kind:        string(a.Party.Kind),
		Name:        a.Name,
		Reference:   a.Reference,
		Balance:     a.Balance,
		CreditLimit: a.CreditLimit,
		Currency:    string(a.Currency),
		CreatedAt:   a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var initial *domain.Money
	if req.InitialBalance != nil {
		cur := domain.Currency(req.Currency)
		if cur == "" {
			cur = domain.DefaultCurrency
		}
		m := domain.NewMoney(*req.InitialBalance, cur)
		initial = &m
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.Resource, initial)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		RespondValidationError(w, []FieldError{{Field: "resource", Message: "required"}})
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), resource)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

type balanceDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		RespondValidationError(w, []FieldError{{Field: "resource", Message: "required"}})
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), resource)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to read balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Amount:   balance.Amount,
		Currency: string(balance.Currency),
		Display:  balance.Format("en"),
	})
}

type entryDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Resource  string    `json:"resource"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AccountHandler) Entries(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		RespondValidationError(w, []FieldError{{Field: "resource", Message: "required"}})
		return
	}

	entries, err := h.ledger.Entries(r.Context(), resource)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list ledger entries", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]entryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = entryDTO{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Amount:    e.Amount,
			Currency:  string(e.Currency),
			Resource:  e.Resource,
			Memo:      e.Memo,
			CreatedAt: e.CreatedAt,
		}
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
