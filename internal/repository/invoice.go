package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
)

const (
	billingComponent = "bc"
	invoiceType      = "invoices"
)

type invoiceItemDTO struct {
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	Price         string `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
}

type invoiceDTO struct {
	Reference     string           `json:"reference"`
	Name          string           `json:"name"`
	Customer      string           `json:"customer"`
	PaymentID     string           `json:"paymentId"`
	Items         []invoiceItemDTO `json:"items"`
	Price         string           `json:"price"`
	PriceCurrency string           `json:"priceCurrency"`
	Paid          bool             `json:"paid"`
	CreatedAt     time.Time        `json:"dateCreated,omitempty"`
}

type InvoiceRepository struct {
	store *commonground.Client
}

func NewInvoiceRepository(store *commonground.Client) *InvoiceRepository {
	return &InvoiceRepository{store: store}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	dto := invoiceDTO{
		Reference:     invoice.Reference.String(),
		Name:          invoice.Name,
		Customer:      invoice.Customer,
		PaymentID:     invoice.PaymentID,
		Price:         invoice.Price.FormatMajor(),
		PriceCurrency: string(invoice.Price.Currency),
		Paid:          invoice.Paid,
	}
	for _, item := range invoice.Items {
		dto.Items = append(dto.Items, invoiceItemDTO{
			Name:          item.Name,
			Quantity:      item.Quantity,
			Price:         item.UnitPrice.FormatMajor(),
			PriceCurrency: string(item.UnitPrice.Currency),
		})
	}

	if err := r.store.Create(ctx, billingComponent, invoiceType, dto, nil); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByPaymentID finds the invoice settling a gateway payment. Used as
// the idempotency check before crediting a settled payment twice.
func (r *InvoiceRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	col, err := r.store.List(ctx, billingComponent, invoiceType, url.Values{"paymentId": {paymentID}})
	if err != nil {
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	if len(col.Members) == 0 {
		return nil, fmt.Errorf("GetByPaymentID: %w", domain.ErrNotFound)
	}

	var dto invoiceDTO
	if err := decode(col.Members[0], &dto); err != nil {
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	return dto.toDomain()
}

func (d invoiceDTO) toDomain() (*domain.Invoice, error) {
	ref, err := uuid.Parse(d.Reference)
	if err != nil {
		return nil, fmt.Errorf("toDomain: invoice reference %q: %w", d.Reference, err)
	}

	cur := domain.Currency(d.PriceCurrency)
	price, err := domain.ParseMajor(d.Price, cur)
	if err != nil {
		return nil, fmt.Errorf("toDomain: invoice price %q: %w", d.Price, err)
	}

	invoice := &domain.Invoice{
		Reference: ref,
		Name:      d.Name,
		Customer:  d.Customer,
		PaymentID: d.PaymentID,
		Price:     price,
		Paid:      d.Paid,
		CreatedAt: d.CreatedAt,
	}
	for _, item := range d.Items {
		unit, err := domain.ParseMajor(item.Price, domain.Currency(item.PriceCurrency))
		if err != nil {
			return nil, fmt.Errorf("toDomain: item price %q: %w", item.Price, err)
		}
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
		})
	}
	return invoice, nil
}
