package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
)

const (
	balanceComponent = "bare"
	accountType      = "accounts"
)

type accountDTO struct {
	ID          string    `json:"id"`
	Resource    string    `json:"resource"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Reference   string    `json:"reference"`
	Balance     int64     `json:"balance"`
	CreditLimit int64     `json:"creditLimit"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"dateCreated"`
}

func (d accountDTO) toDomain() *domain.Account {
	cur := domain.Currency(d.Currency)
	if cur == "" {
		cur = domain.DefaultCurrency
	}
	return &domain.Account{
		ID:          d.ID,
		Resource:    d.Resource,
		Party:       domain.PartyRef{Kind: domain.PartyKind(d.Kind), URI: d.Resource},
		Name:        d.Name,
		Reference:   d.Reference,
		Balance:     d.Balance,
		CreditLimit: d.CreditLimit,
		Currency:    cur,
		CreatedAt:   d.CreatedAt,
	}
}

type AccountRepository struct {
	store *commonground.Client
}

func NewAccountRepository(store *commonground.Client) *AccountRepository {
	return &AccountRepository{store: store}
}

// GetByResource returns the primary account for a resource. The store
// may hold duplicates from older writers; the first member wins.
func (r *AccountRepository) GetByResource(ctx context.Context, resource string) (*domain.Account, error) {
	col, err := r.store.List(ctx, balanceComponent, accountType, url.Values{"resource": {resource}})
	if err != nil {
		return nil, fmt.Errorf("GetByResource: %w", err)
	}
	if len(col.Members) == 0 {
		return nil, fmt.Errorf("GetByResource: %w", domain.ErrNotFound)
	}

	var dto accountDTO
	if err := decode(col.Members[0], &dto); err != nil {
		return nil, fmt.Errorf("GetByResource: %w", err)
	}
	return dto.toDomain(), nil
}

// GetByReference looks an account up by its display reference code.
func (r *AccountRepository) GetByReference(ctx context.Context, reference string) (*domain.Account, error) {
	col, err := r.store.List(ctx, balanceComponent, accountType, url.Values{"reference": {reference}})
	if err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	if len(col.Members) == 0 {
		return nil, fmt.Errorf("GetByReference: %w", domain.ErrNotFound)
	}

	var dto accountDTO
	if err := decode(col.Members[0], &dto); err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return dto.toDomain(), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	payload := accountDTO{
		Resource:    account.Resource,
		Kind:        string(account.Party.Kind),
		Name:        account.Name,
		Reference:   account.Reference,
		Balance:     account.Balance,
		CreditLimit: account.CreditLimit,
		Currency:    string(account.Currency),
	}

	var created accountDTO
	if err := r.store.Create(ctx, balanceComponent, accountType, payload, &created); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return created.toDomain(), nil
}
