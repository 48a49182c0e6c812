package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
	"github.com/conductionnl/balance-service/internal/settlement"
)

type settlementService interface {
	CreateIntent(ctx context.Context, amount domain.Money, redirectURL string) (*domain.PaymentIntent, error)
	Settle(ctx context.Context, paymentID, resource string) (*settlement.Result, error)
}

type PaymentHandler struct {
	settlements settlementService
}

func NewPaymentHandler(settlements settlementService) *PaymentHandler {
	return &PaymentHandler{settlements: settlements}
}

type createPaymentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url"`
}

func (r createPaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Currency != "" && !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EUR, USD, or GBP"})
	}
	return errs
}

type paymentIntentDTO struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	cur := domain.Currency(req.Currency)
	if cur == "" {
		cur = domain.DefaultCurrency
	}

	intent, err := h.settlements.CreateIntent(r.Context(), domain.NewMoney(req.Amount, cur), req.RedirectURL)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create payment intent", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, paymentIntentDTO{
		ID:          intent.ID,
		CheckoutURL: intent.CheckoutURL,
		Status:      string(intent.Status),
	})
}

type settleRequest struct {
	Resource string `json:"resource"`
}

type settlementDTO struct {
	Status    string `json:"status"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	paymentID := r.PathValue("id")
	if paymentID == "" {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "required"}})
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Resource == "" {
		RespondValidationError(w, []FieldError{{Field: "resource", Message: "required"}})
		return
	}

	result, err := h.settlements.Settle(r.Context(), paymentID, req.Resource)
	if err != nil {
		logging.FromContext(r.Context()).Error("settlement failed", "error", err, "payment_id", paymentID)
		RespondDomainError(w, err)
		return
	}

	dto := settlementDTO{Status: string(result.Status)}
	if result.Amount != nil {
		dto.Amount = result.Amount.FormatMajor()
		dto.Currency = string(result.Amount.Currency)
		dto.Reference = result.Reference.String()
	}

	RespondSuccess(w, http.StatusOK, dto)
}
