package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PartyKind discriminates the kind of entity that can own an account.
type PartyKind string

const (
	PartyKindUser         PartyKind = "user"
	PartyKindOrganization PartyKind = "organization"
	PartyKindApplication  PartyKind = "application"
)

func (k PartyKind) IsValid() bool {
	switch k {
	case PartyKindUser, PartyKindOrganization, PartyKindApplication:
		return true
	}
	return false
}

// PartyRef identifies the entity that owns an account. Callers switch
// on Kind; there is no catch-all shape.
type PartyRef struct {
	Kind PartyKind `json:"kind"`
	URI  string    `json:"uri"`
}

// PartyFromResource classifies an owning resource URI by its collection
// segment. URIs outside the known collections are rejected rather than
// lumped into a fallback kind.
func PartyFromResource(resource string) (PartyRef, error) {
	u, err := url.Parse(resource)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return PartyRef{}, fmt.Errorf("PartyFromResource: %q: %w", resource, ErrInvalidResource)
	}

	var kind PartyKind
	for _, segment := range strings.Split(u.Path, "/") {
		switch segment {
		case "people", "users", "ingeschrevenpersonen":
			kind = PartyKindUser
		case "organizations", "organisations":
			kind = PartyKindOrganization
		case "applications":
			kind = PartyKindApplication
		}
	}
	if kind == "" {
		return PartyRef{}, fmt.Errorf("PartyFromResource: %q: unknown collection: %w", resource, ErrInvalidResource)
	}
	return PartyRef{Kind: kind, URI: resource}, nil
}

// Account is the materialized balance view the resource store keeps per
// owning resource. Balance and CreditLimit are minor units. Accounts
// are mutated only through ledger entries, never written directly; the
// store owns the aggregation, so Balance is re-read after each write.
type Account struct {
	ID          string
	Resource    string
	Party       PartyRef
	Name        string
	Reference   string
	Balance     int64
	CreditLimit int64
	Currency    Currency
	CreatedAt   time.Time
}

// BalanceMoney reads the current balance as a Money value.
func (a *Account) BalanceMoney() Money {
	return Money{Amount: a.Balance, Currency: a.Currency}
}
