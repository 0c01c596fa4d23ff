// Package prefs holds per-user pipeline preferences: the base currency for
// classification, the default fallback accounts for resolution and the
// ledger store credentials.
package prefs

import (
	"errors"
	"time"

	"moneyvoice/internal/domain/resolve"
)

// ErrNotFound is returned when a user has no stored preferences.
var ErrNotFound = errors.New("preferences not found")

// Preferences is the stored per-user configuration. StoreAPIKey is
// encrypted at rest; the service layer hands it out decrypted.
type Preferences struct {
	UserID             int64
	BaseCurrency       string
	StoreAPIKey        string
	IncomeAccountID    string
	IncomeAccountKind  string
	ExpenseAccountID   string
	ExpenseAccountKind string
	DeviceTokens       []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UpsertParams carries the fields a caller may set.
type UpsertParams struct {
	UserID             int64
	BaseCurrency       string
	StoreAPIKey        string
	IncomeAccountID    string
	IncomeAccountKind  string
	ExpenseAccountID   string
	ExpenseAccountKind string
	DeviceTokens       []string
}

// ResolutionDefaults converts the stored defaults into the shape the
// account resolver consumes.
func (p *Preferences) ResolutionDefaults() resolve.Defaults {
	return resolve.Defaults{
		IncomeAccountID:    p.IncomeAccountID,
		IncomeAccountKind:  resolve.AccountKind(p.IncomeAccountKind),
		ExpenseAccountID:   p.ExpenseAccountID,
		ExpenseAccountKind: resolve.AccountKind(p.ExpenseAccountKind),
	}
}
