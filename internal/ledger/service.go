package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
)

const referenceLength = 10

type accountRepo interface {
	GetByResource(ctx context.Context, resource string) (*domain.Account, error)
	GetByReference(ctx context.Context, reference string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

type ledgerRepo interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ListByResource(ctx context.Context, resource string) ([]domain.LedgerEntry, error)
}

type resourceResolver interface {
	Get(ctx context.Context, uri string) (*commonground.Object, error)
}

// Service owns balance mutation. Accounts are only changed through
// appended ledger entries; the store aggregates those into the balance
// this service reads back.
type Service struct {
	accounts accountRepo
	entries  ledgerRepo
	resolver resourceResolver
	locks    *KeyMutex
	currency domain.Currency
}

func NewService(accounts accountRepo, entries ledgerRepo, resolver resourceResolver, currency domain.Currency) *Service {
	if !currency.IsValid() {
		currency = domain.DefaultCurrency
	}
	return &Service{
		accounts: accounts,
		entries:  entries,
		resolver: resolver,
		locks:    NewKeyMutex(),
		currency: currency,
	}
}

// GetAccount looks up the account owned by resource. There is no
// implicit creation; absent accounts are domain.ErrNotFound.
func (s *Service) GetAccount(ctx context.Context, resource string) (*domain.Account, error) {
	account, err := s.accounts.GetByResource(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// CreateAccount provisions an account for a resource, named after the
// resolved resource and carrying a fresh random reference code. At most
// one account exists per resource; a second request is rejected. When
// initialBalance is non-nil the account is immediately credited for
// that amount with the resource name as memo.
func (s *Service) CreateAccount(ctx context.Context, resource string, initialBalance *domain.Money) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	party, err := domain.PartyFromResource(resource)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	object, err := s.resolver.Get(ctx, resource)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("CreateAccount: resolve %q: %w", resource, domain.ErrInvalidResource)
		}
		// the store failing is not the same as the resource not existing
		return nil, fmt.Errorf("CreateAccount: resolve %q: %w: %w", resource, domain.ErrCreationFailed, err)
	}

	account, err := s.provision(ctx, resource, party, object.Name)
	if err != nil {
		return nil, err
	}

	if initialBalance != nil {
		if err := s.AddCredit(ctx, *initialBalance, resource, object.Name); err != nil {
			// The account record exists upstream but carries no funds;
			// the caller is told creation failed rather than being left
			// to assume the initial credit landed.
			return nil, fmt.Errorf("CreateAccount: initial credit: %w: %v", domain.ErrCreationFailed, err)
		}
		account, err = s.accounts.GetByResource(ctx, resource)
		if err != nil {
			return nil, fmt.Errorf("CreateAccount: read back: %w: %v", domain.ErrCreationFailed, err)
		}
	}

	log.Info("account created",
		"resource", resource,
		"party_kind", party.Kind,
		"reference", account.Reference,
		"name", object.Name,
	)

	return account, nil
}

// provision writes the account record. The existence check and the
// create run under the resource lock so a doubled request cannot mint a
// second account for the same owner.
func (s *Service) provision(ctx context.Context, resource string, party domain.PartyRef, name string) (*domain.Account, error) {
	s.locks.Lock(resource)
	defer s.locks.Unlock(resource)

	_, err := s.accounts.GetByResource(ctx, resource)
	if err == nil {
		return nil, fmt.Errorf("CreateAccount: %q: %w", resource, domain.ErrAccountExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("CreateAccount: %w: %w", domain.ErrCreationFailed, err)
	}

	reference, err := s.uniqueReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w: %v", domain.ErrCreationFailed, err)
	}

	account, err := s.accounts.Create(ctx, &domain.Account{
		Resource:  resource,
		Party:     party,
		Name:      name,
		Reference: reference,
		Currency:  s.currency,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w: %v", domain.ErrCreationFailed, err)
	}
	return account, nil
}

// AddCredit appends a credit entry. There is no limit on the upward
// direction; the account does not have to exist yet.
func (s *Service) AddCredit(ctx context.Context, amount domain.Money, resource, memo string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("AddCredit: %w", domain.ErrInvalidAmount)
	}

	s.locks.Lock(resource)
	defer s.locks.Unlock(resource)

	entry := &domain.LedgerEntry{
		Kind:     domain.EntryKindCredit,
		Amount:   amount.Amount,
		Currency: amount.Currency,
		Resource: resource,
		Memo:     memo,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return fmt.Errorf("AddCredit: %w: %v", domain.ErrLedgerWrite, err)
	}

	logging.FromContext(ctx).Info("credit recorded",
		"resource", resource,
		"amount", amount.Amount,
		"currency", amount.Currency,
	)
	return nil
}

// RemoveCredit appends a debit entry after enforcing the credit limit:
// the projected balance may not drop below the negated limit.
func (s *Service) RemoveCredit(ctx context.Context, amount domain.Money, resource, memo string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("RemoveCredit: %w", domain.ErrInvalidAmount)
	}

	s.locks.Lock(resource)
	defer s.locks.Unlock(resource)

	account, err := s.accounts.GetByResource(ctx, resource)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("RemoveCredit: %w", domain.ErrNoAccount)
		}
		return fmt.Errorf("RemoveCredit: %w", err)
	}

	if amount.Currency != account.Currency {
		return fmt.Errorf("RemoveCredit: %s on %s account: %w", amount.Currency, account.Currency, domain.ErrCurrencyMismatch)
	}

	projected := account.Balance - amount.Amount
	if projected < -account.CreditLimit {
		return fmt.Errorf("RemoveCredit: projected balance %d below limit -%d: %w",
			projected, account.CreditLimit, domain.ErrInsufficientCredit)
	}

	entry := &domain.LedgerEntry{
		Kind:     domain.EntryKindDebit,
		Amount:   amount.Amount,
		Currency: amount.Currency,
		Resource: resource,
		Memo:     memo,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return fmt.Errorf("RemoveCredit: %w: %v", domain.ErrLedgerWrite, err)
	}

	logging.FromContext(ctx).Info("debit recorded",
		"resource", resource,
		"amount", amount.Amount,
		"currency", amount.Currency,
		"projected_balance", projected,
	)
	return nil
}

// GetBalance returns the current balance for a resource. A missing
// account yields zero in the default currency rather than an error,
// which keeps display contexts free of not-found handling.
func (s *Service) GetBalance(ctx context.Context, resource string) (domain.Money, error) {
	account, err := s.accounts.GetByResource(ctx, resource)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ZeroMoney(s.currency), nil
		}
		return domain.Money{}, fmt.Errorf("GetBalance: %w", err)
	}
	return account.BalanceMoney(), nil
}

// Entries lists the ledger entries recorded against a resource.
func (s *Service) Entries(ctx context.Context, resource string) ([]domain.LedgerEntry, error) {
	entries, err := s.entries.ListByResource(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("Entries: %w", err)
	}
	return entries, nil
}

// uniqueReference draws random digit codes until one is unused. A
// collision among 10^10 codes is already negligible; the lookup guards
// against the store holding an unlucky duplicate anyway.
func (s *Service) uniqueReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		reference, err := generateReference()
		if err != nil {
			return "", err
		}
		_, err = s.accounts.GetByReference(ctx, reference)
		if errors.Is(err, domain.ErrNotFound) {
			return reference, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("uniqueReference: exhausted attempts")
}

func generateReference() (string, error) {
	digits := make([]byte, referenceLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateReference: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
