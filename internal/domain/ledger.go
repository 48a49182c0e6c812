package domain

import "time"

type EntryKind string

const (
	EntryKindCredit EntryKind = "credit"
	EntryKindDebit  EntryKind = "debit"
)

// LedgerEntry is one append-only credit or debit against the account
// owned by Resource. Amount is strictly positive minor units; the kind
// carries the direction.
type LedgerEntry struct {
	ID        string
	Kind      EntryKind
	Amount    int64
	Currency  Currency
	Resource  string
	Memo      string
	CreatedAt time.Time
}
