package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
)

const paymentType = "payments"

// entryDTO is the wire form of a ledger entry. The store keeps the
// direction as separate credit/debit fields rather than a kind column.
type entryDTO struct {
	ID        string    `json:"id,omitempty"`
	Credit    *int64    `json:"credit,omitempty"`
	Debit     *int64    `json:"debit,omitempty"`
	Resource  string    `json:"resource"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency,omitempty"`
	CreatedAt time.Time `json:"dateCreated,omitempty"`
}

func (d entryDTO) toDomain() domain.LedgerEntry {
	entry := domain.LedgerEntry{
		ID:        d.ID,
		Resource:  d.Resource,
		Memo:      d.Name,
		Currency:  domain.Currency(d.Currency),
		CreatedAt: d.CreatedAt,
	}
	switch {
	case d.Credit != nil:
		entry.Kind = domain.EntryKindCredit
		entry.Amount = *d.Credit
	case d.Debit != nil:
		entry.Kind = domain.EntryKindDebit
		entry.Amount = *d.Debit
	}
	return entry
}

type LedgerRepository struct {
	store *commonground.Client
}

func NewLedgerRepository(store *commonground.Client) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Append writes one immutable ledger entry. The store aggregates the
// owning account's balance from these entries.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	dto := entryDTO{
		Resource: entry.Resource,
		Name:     entry.Memo,
		Currency: string(entry.Currency),
	}
	amount := entry.Amount
	switch entry.Kind {
	case domain.EntryKindCredit:
		dto.Credit = &amount
	case domain.EntryKindDebit:
		dto.Debit = &amount
	default:
		return fmt.Errorf("Append: unknown entry kind %q", entry.Kind)
	}

	if err := r.store.Create(ctx, balanceComponent, paymentType, dto, nil); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

// ListByResource returns the entries recorded against a resource,
// oldest first as the store orders them.
func (r *LedgerRepository) ListByResource(ctx context.Context, resource string) ([]domain.LedgerEntry, error) {
	col, err := r.store.List(ctx, balanceComponent, paymentType, url.Values{"resource": {resource}})
	if err != nil {
		return nil, fmt.Errorf("ListByResource: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(col.Members))
	for _, member := range col.Members {
		var dto entryDTO
		if err := decode(member, &dto); err != nil {
			return nil, fmt.Errorf("ListByResource: %w", err)
		}
		entries = append(entries, dto.toDomain())
	}
	return entries, nil
}

func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode member: %w", err)
	}
	return nil
}
