package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/ledger"
	"github.com/conductionnl/balance-service/internal/logging"
)

const (
	intentDescription = "wallet funds"
	invoiceItemName   = "credit top-up"
)

type gatewayClient interface {
	CreatePayment(ctx context.Context, amount domain.Money, description, redirectURL string) (*domain.PaymentIntent, error)
	GetPayment(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

type creditor interface {
	AddCredit(ctx context.Context, amount domain.Money, resource, memo string) error
}

type invoiceRepo interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Invoice, error)
}

type resourceResolver interface {
	Get(ctx context.Context, uri string) (*commonground.Object, error)
}

// Service reconciles gateway payment results into ledger credits and
// invoices. The gateway drives every status transition; this service
// only observes them.
type Service struct {
	gateway     gatewayClient
	ledger      creditor
	invoices    invoiceRepo
	resolver    resourceResolver
	locks       *ledger.KeyMutex
	taxRatePct  int64
	redirectURL string
}

// NewService wires the settlement flow. redirectURL is the fallback
// checkout return address used when an intent does not carry its own.
func NewService(gw gatewayClient, creditor creditor, invoices invoiceRepo, resolver resourceResolver, taxRatePct int64, redirectURL string) *Service {
	return &Service{
		gateway:     gw,
		ledger:      creditor,
		invoices:    invoices,
		resolver:    resolver,
		locks:       ledger.NewKeyMutex(),
		taxRatePct:  taxRatePct,
		redirectURL: redirectURL,
	}
}

// Result is the outcome of a settlement attempt. Amount and Reference
// are only set when the payment was paid and has now been credited.
type Result struct {
	Status    domain.PaymentStatus
	Amount    *domain.Money
	Reference uuid.UUID
}

// CreateIntent registers a payment with the gateway. The returned
// intent's ID is the sole reconciliation handle; the caller persists it
// across the checkout redirect.
func (s *Service) CreateIntent(ctx context.Context, amount domain.Money, redirectURL string) (*domain.PaymentIntent, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("CreateIntent: %w", domain.ErrInvalidAmount)
	}

	if redirectURL == "" {
		redirectURL = s.redirectURL
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("CreateIntent: no redirect url: %w", domain.ErrInvalidRequest)
	}

	intent, err := s.gateway.CreatePayment(ctx, amount, intentDescription, redirectURL)
	if err != nil {
		return nil, fmt.Errorf("CreateIntent: %w", err)
	}

	logging.FromContext(ctx).Info("payment intent created",
		"payment_id", intent.ID,
		"amount", amount.Amount,
		"currency", amount.Currency,
	)
	return intent, nil
}

// Settle polls the gateway for a payment and, when it was paid, credits
// the owning resource for the tax-exclusive net amount and persists one
// paid invoice. Settling is idempotent per payment id: a second call
// finds the invoice and reports domain.ErrAlreadySettled without
// touching the ledger. Non-paid statuses are returned with no side
// effects and may be polled again.
func (s *Service) Settle(ctx context.Context, paymentID, resource string) (*Result, error) {
	log := logging.FromContext(ctx)

	intent, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("Settle: %w", err)
	}

	if intent.Status != domain.PaymentStatusPaid {
		return &Result{Status: intent.Status}, nil
	}

	s.locks.Lock(paymentID)
	defer s.locks.Unlock(paymentID)

	_, err = s.invoices.GetByPaymentID(ctx, paymentID)
	if err == nil {
		return nil, fmt.Errorf("Settle: %s: %w", paymentID, domain.ErrAlreadySettled)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Settle: idempotency check: %w", err)
	}

	object, err := s.resolver.Get(ctx, resource)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Settle: resolve %q: %w", resource, domain.ErrInvalidResource)
		}
		return nil, fmt.Errorf("Settle: resolve %q: %w", resource, err)
	}

	net := s.netOfTax(intent.Amount)

	if err := s.ledger.AddCredit(ctx, net, resource, object.Name); err != nil {
		return nil, fmt.Errorf("Settle: %w", err)
	}

	invoice := &domain.Invoice{
		Reference: uuid.New(),
		Name:      intentDescription,
		Customer:  resource,
		PaymentID: paymentID,
		Items: []domain.InvoiceItem{
			{Name: invoiceItemName, Quantity: 1, UnitPrice: net},
		},
		Price: net,
		Paid:  true,
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		// The credit landed but the invoice did not, so the idempotency
		// marker is missing. Surface this loudly: a blind retry would
		// credit the resource a second time.
		log.Error("invoice write failed after credit",
			"payment_id", paymentID,
			"resource", resource,
			"amount", net.Amount,
			"error", err,
		)
		return nil, fmt.Errorf("Settle: invoice: %w: %v", domain.ErrLedgerWrite, err)
	}

	log.Info("payment settled",
		"payment_id", paymentID,
		"resource", resource,
		"gross", intent.Amount.Amount,
		"net", net.Amount,
		"invoice_reference", invoice.Reference,
	)

	return &Result{
		Status:    domain.PaymentStatusPaid,
		Amount:    &net,
		Reference: invoice.Reference,
	}, nil
}

// netOfTax strips the jurisdiction's tax-inclusive markup from a gross
// gateway amount: net = gross / (1 + rate). Exact minor-unit integers
// in and out; the division runs through decimal and rounds half away
// from zero to the cent.
func (s *Service) netOfTax(gross domain.Money) domain.Money {
	net := decimal.NewFromInt(gross.Amount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(100 + s.taxRatePct)).
		Round(0)
	return domain.Money{Amount: net.IntPart(), Currency: gross.Currency}
}
