package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/domain"
)

type fakeGateway struct {
	payments map[string]*domain.PaymentIntent
	err      error
	created  int
}

func (f *fakeGateway) CreatePayment(_ context.Context, amount domain.Money, description, redirectURL string) (*domain.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	intent := &domain.PaymentIntent{
		ID:          fmt.Sprintf("tr_%d", f.created),
		Amount:      amount,
		Description: description,
		RedirectURL: redirectURL,
		CheckoutURL: "https://gateway.test/checkout/tr_1",
		Status:      domain.PaymentStatusOpen,
	}
	f.payments[intent.ID] = intent
	return intent, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*domain.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	intent, ok := f.payments[id]
	if !ok {
		return nil, fmt.Errorf("GetPayment: %w", domain.ErrNotFound)
	}
	return intent, nil
}

type recordedCredit struct {
	amount   domain.Money
	resource string
	memo     string
}

type fakeCreditor struct {
	mu      sync.Mutex
	credits []recordedCredit
	err     error
}

func (f *fakeCreditor) AddCredit(_ context.Context, amount domain.Money, resource, memo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.credits = append(f.credits, recordedCredit{amount: amount, resource: resource, memo: memo})
	return nil
}

type fakeInvoices struct {
	mu        sync.Mutex
	byPayment map[string]*domain.Invoice
	createErr error
}

func (f *fakeInvoices) Create(_ context.Context, invoice *domain.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *invoice
	f.byPayment[invoice.PaymentID] = &copied
	return nil
}

func (f *fakeInvoices) GetByPaymentID(_ context.Context, paymentID string) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.byPayment[paymentID]
	if !ok {
		return nil, fmt.Errorf("GetByPaymentID: %w", domain.ErrNotFound)
	}
	return invoice, nil
}

type fakeResolver struct {
	name string
	err  error
}

func (f *fakeResolver) Get(_ context.Context, uri string) (*commonground.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &commonground.Object{ID: "42", Name: f.name}, nil
}

const testResource = "https://example.org/people/42"

type fixture struct {
	gateway  *fakeGateway
	creditor *fakeCreditor
	invoices *fakeInvoices
	svc      *Service
}

func newFixture() *fixture {
	gw := &fakeGateway{payments: make(map[string]*domain.PaymentIntent)}
	creditor := &fakeCreditor{}
	invoices := &fakeInvoices{byPayment: make(map[string]*domain.Invoice)}
	resolver := &fakeResolver{name: "Jan Jansen"}
	return &fixture{
		gateway:  gw,
		creditor: creditor,
		invoices: invoices,
		svc:      NewService(gw, creditor, invoices, resolver, 21, "https://app.test/fallback"),
	}
}

func (fx *fixture) seedPayment(status domain.PaymentStatus, grossCents int64) string {
	id := fmt.Sprintf("tr_seed_%d", len(fx.gateway.payments)+1)
	fx.gateway.payments[id] = &domain.PaymentIntent{
		ID:     id,
		Amount: domain.EUR(grossCents),
		Status: status,
	}
	return id
}

func TestCreateIntent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	intent, err := fx.svc.CreateIntent(ctx, domain.EUR(1210), "https://app.test/return")
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)
	assert.NotEmpty(t, intent.CheckoutURL)
	assert.Equal(t, domain.PaymentStatusOpen, intent.Status)
}

func TestCreateIntentFallbackRedirect(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	intent, err := fx.svc.CreateIntent(ctx, domain.EUR(500), "")
	require.NoError(t, err)
	assert.Equal(t, "https://app.test/fallback", intent.RedirectURL)
}

func TestCreateIntentNoRedirect(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.svc.redirectURL = ""

	_, err := fx.svc.CreateIntent(ctx, domain.EUR(500), "")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, fx.gateway.created)
}

func TestCreateIntentRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	_, err := fx.svc.CreateIntent(ctx, domain.EUR(0), "https://app.test/return")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Zero(t, fx.gateway.created)
}

func TestSettlePaid(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	id := fx.seedPayment(domain.PaymentStatusPaid, 1210)

	result, err := fx.svc.Settle(ctx, id, testResource)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, result.Status)

	// 1210 gross at 21% tax nets to exactly 1000
	require.NotNil(t, result.Amount)
	assert.Equal(t, domain.EUR(1000), *result.Amount)

	require.Len(t, fx.creditor.credits, 1)
	assert.Equal(t, domain.EUR(1000), fx.creditor.credits[0].amount)
	assert.Equal(t, testResource, fx.creditor.credits[0].resource)
	assert.Equal(t, "Jan Jansen", fx.creditor.credits[0].memo)

	invoice, err := fx.invoices.GetByPaymentID(ctx, id)
	require.NoError(t, err)
	assert.True(t, invoice.Paid)
	assert.Equal(t, result.Reference, invoice.Reference)
	assert.Equal(t, testResource, invoice.Customer)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, 1, invoice.Items[0].Quantity)
	assert.Equal(t, domain.EUR(1000), invoice.Items[0].UnitPrice)
	assert.Equal(t, domain.EUR(1000), invoice.Price)
}

func TestSettleIdempotent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	id := fx.seedPayment(domain.PaymentStatusPaid, 1210)

	_, err := fx.svc.Settle(ctx, id, testResource)
	require.NoError(t, err)

	_, err = fx.svc.Settle(ctx, id, testResource)
	require.ErrorIs(t, err, domain.ErrAlreadySettled)

	// exactly one credit and one invoice despite the retry
	assert.Len(t, fx.creditor.credits, 1)
	assert.Len(t, fx.invoices.byPayment, 1)
}

func TestSettleNonPaidStatuses(t *testing.T) {
	ctx := context.Background()

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusOpen,
		domain.PaymentStatusFailed,
		domain.PaymentStatusExpired,
		domain.PaymentStatusCanceled,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newFixture()
			id := fx.seedPayment(status, 1210)

			result, err := fx.svc.Settle(ctx, id, testResource)
			require.NoError(t, err)
			assert.Equal(t, status, result.Status)
			assert.Nil(t, result.Amount)

			assert.Empty(t, fx.creditor.credits)
			assert.Empty(t, fx.invoices.byPayment)
		})
	}
}

func TestSettleGatewayFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.gateway.err = fmt.Errorf("poll: %w", domain.ErrGatewayUnavailable)

	_, err := fx.svc.Settle(ctx, "tr_x", testResource)
	require.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Empty(t, fx.creditor.credits)
}

func TestSettleUnresolvableResource(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	id := fx.seedPayment(domain.PaymentStatusPaid, 1210)
	fx.svc.resolver = &fakeResolver{err: fmt.Errorf("Get: %w", domain.ErrNotFound)}

	_, err := fx.svc.Settle(ctx, id, testResource)
	require.ErrorIs(t, err, domain.ErrInvalidResource)
	assert.Empty(t, fx.creditor.credits)
	assert.Empty(t, fx.invoices.byPayment)
}

func TestSettleResolverOutage(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	id := fx.seedPayment(domain.PaymentStatusPaid, 1210)
	fx.svc.resolver = &fakeResolver{err: errors.New("store down")}

	// a failing store must not read as an invalid resource verdict
	_, err := fx.svc.Settle(ctx, id, testResource)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrInvalidResource)
	assert.Contains(t, err.Error(), "store down")
	assert.Empty(t, fx.creditor.credits)
	assert.Empty(t, fx.invoices.byPayment)
}

func TestSettleInvoiceWriteFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	id := fx.seedPayment(domain.PaymentStatusPaid, 1210)
	fx.invoices.createErr = errors.New("store down")

	_, err := fx.svc.Settle(ctx, id, testResource)
	require.ErrorIs(t, err, domain.ErrLedgerWrite)

	// the credit landed before the invoice write failed
	assert.Len(t, fx.creditor.credits, 1)
	assert.Empty(t, fx.invoices.byPayment)
}

func TestNetOfTax(t *testing.T) {
	tests := []struct {
		name    string
		taxPct  int64
		gross   int64
		wantNet int64
	}{
		{"exact division", 21, 1210, 1000},
		{"rounds half away from zero", 21, 1000, 826}, // 826.446...
		{"zero rate", 0, 1500, 1500},
		{"six percent", 6, 1060, 1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &Service{taxRatePct: tc.taxPct}
			net := svc.netOfTax(domain.EUR(tc.gross))
			assert.Equal(t, tc.wantNet, net.Amount)
			assert.Equal(t, domain.CurrencyEUR, net.Currency)
		})
	}
}
