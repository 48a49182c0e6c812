package domain

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceItem struct {
	Name      string
	Quantity  int
	UnitPrice Money
}

// Invoice records one settled payment. Reference is a freshly generated
// UUID; PaymentID is the gateway payment the invoice settles and doubles
// as the reconciliation/idempotency key.
type Invoice struct {
	Reference uuid.UUID
	Name      string
	Customer  string
	PaymentID string
	Items     []InvoiceItem
	Price     Money
	Paid      bool
	CreatedAt time.Time
}
