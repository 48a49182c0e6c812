package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
)

func newStore(t *testing.T, handler http.HandlerFunc) *commonground.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return commonground.NewClient(srv.URL, "test-key", 2*time.Second)
}

func collectionOf(members ...map[string]any) map[string]any {
	raw := make([]map[string]any, 0, len(members))
	raw = append(raw, members...)
	return map[string]any{
		"hydra:member":     raw,
		"hydra:totalItems": len(raw),
	}
}

func TestAccountGetByResource(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bare/accounts", r.URL.Path)
		require.Equal(t, "https://example.org/people/42", r.URL.Query().Get("resource"))

		json.NewEncoder(w).Encode(collectionOf(
			map[string]any{
				"id":          "a1",
				"resource":    "https://example.org/people/42",
				"kind":        "user",
				"name":        "Jan Jansen",
				"reference":   "1234567890",
				"balance":     500,
				"creditLimit": 1000,
				"currency":    "EUR",
			},
			map[string]any{"id": "a2", "balance": 900},
		))
	})

	repo := NewAccountRepository(store)

	account, err := repo.GetByResource(context.Background(), "https://example.org/people/42")
	require.NoError(t, err)

	// duplicates may exist in the store; the first member wins
	assert.Equal(t, "a1", account.ID)
	assert.Equal(t, int64(500), account.Balance)
	assert.Equal(t, int64(1000), account.CreditLimit)
	assert.Equal(t, domain.CurrencyEUR, account.Currency)
	assert.Equal(t, domain.PartyKindUser, account.Party.Kind)
	assert.Equal(t, account.Resource, account.Party.URI)
}

func TestAccountGetByResourceNotFound(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(collectionOf())
	})

	repo := NewAccountRepository(store)

	_, err := repo.GetByResource(context.Background(), "https://example.org/people/42")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountMissingCurrencyDefaults(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(collectionOf(map[string]any{"id": "a1", "balance": 0}))
	})

	repo := NewAccountRepository(store)

	account, err := repo.GetByResource(context.Background(), "https://example.org/people/42")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, account.Currency)
}

func TestLedgerAppendCredit(t *testing.T) {
	var got map[string]any
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bare/payments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	repo := NewLedgerRepository(store)

	err := repo.Append(context.Background(), &domain.LedgerEntry{
		Kind:     domain.EntryKindCredit,
		Amount:   1000,
		Currency: domain.CurrencyEUR,
		Resource: "https://example.org/people/42",
		Memo:     "top-up",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1000), got["credit"])
	assert.Equal(t, "top-up", got["name"])
	assert.Equal(t, "https://example.org/people/42", got["resource"])
	_, hasDebit := got["debit"]
	assert.False(t, hasDebit)
}

func TestLedgerAppendDebit(t *testing.T) {
	var got map[string]any
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	repo := NewLedgerRepository(store)

	err := repo.Append(context.Background(), &domain.LedgerEntry{
		Kind:     domain.EntryKindDebit,
		Amount:   300,
		Currency: domain.CurrencyEUR,
		Resource: "https://example.org/people/42",
		Memo:     "purchase",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(300), got["debit"])
	_, hasCredit := got["credit"]
	assert.False(t, hasCredit)
}

func TestLedgerAppendUnknownKind(t *testing.T) {
	repo := NewLedgerRepository(nil)

	err := repo.Append(context.Background(), &domain.LedgerEntry{Kind: "transfer"})
	require.Error(t, err)
}

func TestLedgerListByResource(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(collectionOf(
			map[string]any{"id": "e1", "credit": 1000, "name": "top-up", "currency": "EUR"},
			map[string]any{"id": "e2", "debit": 300, "name": "purchase", "currency": "EUR"},
		))
	})

	repo := NewLedgerRepository(store)

	entries, err := repo.ListByResource(context.Background(), "https://example.org/people/42")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.EntryKindCredit, entries[0].Kind)
	assert.Equal(t, int64(1000), entries[0].Amount)
	assert.Equal(t, domain.EntryKindDebit, entries[1].Kind)
	assert.Equal(t, int64(300), entries[1].Amount)
}

func TestInvoiceCreate(t *testing.T) {
	var got map[string]any
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bc/invoices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	repo := NewInvoiceRepository(store)

	invoice := &domain.Invoice{
		Reference: uuid.MustParse("9e107d9d-4f1a-4c24-a9b3-2f1c5d6e7a8b"),
		Name:      "credit top-up",
		Customer:  "https://example.org/people/42",
		PaymentID: "tr_abc123",
		Items: []domain.InvoiceItem{
			{Name: "credit top-up", Quantity: 1, UnitPrice: domain.EUR(1000)},
		},
		Price: domain.EUR(1210),
		Paid:  true,
	}
	require.NoError(t, repo.Create(context.Background(), invoice))

	assert.Equal(t, "9e107d9d-4f1a-4c24-a9b3-2f1c5d6e7a8b", got["reference"])
	assert.Equal(t, "tr_abc123", got["paymentId"])
	assert.Equal(t, "12.10", got["price"])
	assert.Equal(t, "EUR", got["priceCurrency"])
	assert.Equal(t, true, got["paid"])

	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "10.00", item["price"])
}

func TestInvoiceGetByPaymentID(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tr_abc123", r.URL.Query().Get("paymentId"))
		json.NewEncoder(w).Encode(collectionOf(map[string]any{
			"reference":     "9e107d9d-4f1a-4c24-a9b3-2f1c5d6e7a8b",
			"name":          "credit top-up",
			"customer":      "https://example.org/people/42",
			"paymentId":     "tr_abc123",
			"price":         "12.10",
			"priceCurrency": "EUR",
			"paid":          true,
			"items": []map[string]any{
				{"name": "credit top-up", "quantity": 1, "price": "10.00", "priceCurrency": "EUR"},
			},
		}))
	})

	repo := NewInvoiceRepository(store)

	invoice, err := repo.GetByPaymentID(context.Background(), "tr_abc123")
	require.NoError(t, err)

	assert.Equal(t, "tr_abc123", invoice.PaymentID)
	assert.Equal(t, domain.EUR(1210), invoice.Price)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, domain.EUR(1000), invoice.Items[0].UnitPrice)
	assert.True(t, invoice.Paid)
}

func TestInvoiceGetByPaymentIDNotFound(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(collectionOf())
	})

	repo := NewInvoiceRepository(store)

	_, err := repo.GetByPaymentID(context.Background(), "tr_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
