package domain

type PaymentStatus string

const (
	PaymentStatusOpen     PaymentStatus = "open"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusExpired  PaymentStatus = "expired"
	PaymentStatusCanceled PaymentStatus = "canceled"
)

// IsTerminal reports whether the gateway will never move the payment
// again. Open payments may still transition; everything else is final.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusOpen && s != ""
}

// PaymentIntent mirrors a payment held at the external gateway. The ID
// is assigned by the gateway and is the sole reconciliation handle;
// status transitions are driven entirely by the gateway and only
// observed here.
type PaymentIntent struct {
	ID          string
	Amount      Money
	Description string
	RedirectURL string
	CheckoutURL string
	Status      PaymentStatus
}
