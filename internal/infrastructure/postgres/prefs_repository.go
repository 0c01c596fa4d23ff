package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"moneyvoice/internal/domain/prefs"
)

// PrefsRepository implements the prefs.Repository interface for PostgreSQL
type PrefsRepository struct {
	db *DB
}

var _ prefs.Repository = (*PrefsRepository)(nil)

// NewPrefsRepository creates a new PostgreSQL preferences repository
func NewPrefsRepository(db *DB) *PrefsRepository {
	return &PrefsRepository{db: db}
}

// GetByUserID retrieves the preferences for a user
func (r *PrefsRepository) GetByUserID(ctx context.Context, userID int64) (*prefs.Preferences, error) {
	query := `
		SELECT user_id, base_currency, store_api_key,
		       income_account_id, income_account_kind,
		       expense_account_id, expense_account_kind,
		       device_tokens, created_at, updated_at
		FROM preferences
		WHERE user_id = $1
	`

	var p prefs.Preferences
	var storeKey, incomeID, incomeKind, expenseID, expenseKind sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.BaseCurrency, &storeKey,
		&incomeID, &incomeKind, &expenseID, &expenseKind,
		pq.Array(&p.DeviceTokens), &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prefs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	p.StoreAPIKey = storeKey.String
	p.IncomeAccountID = incomeID.String
	p.IncomeAccountKind = incomeKind.String
	p.ExpenseAccountID = expenseID.String
	p.ExpenseAccountKind = expenseKind.String

	return &p, nil
}

// Upsert creates or replaces a user's preferences
func (r *PrefsRepository) Upsert(ctx context.Context, params prefs.UpsertParams) (*prefs.Preferences, error) {
	query := `
		INSERT INTO preferences (
			user_id, base_currency, store_api_key,
			income_account_id, income_account_kind,
			expense_account_id, expense_account_kind, device_tokens
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			base_currency = EXCLUDED.base_currency,
			store_api_key = EXCLUDED.store_api_key,
			income_account_id = EXCLUDED.income_account_id,
			income_account_kind = EXCLUDED.income_account_kind,
			expense_account_id = EXCLUDED.expense_account_id,
			expense_account_kind = EXCLUDED.expense_account_kind,
			device_tokens = EXCLUDED.device_tokens,
			updated_at = CURRENT_TIMESTAMP
		RETURNING user_id, base_currency, store_api_key,
		          income_account_id, income_account_kind,
		          expense_account_id, expense_account_kind,
		          device_tokens, created_at, updated_at
	`

	var p prefs.Preferences
	var storeKey, incomeID, incomeKind, expenseID, expenseKind sql.NullString

	err := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.BaseCurrency, nullString(params.StoreAPIKey),
		nullString(params.IncomeAccountID), nullString(params.IncomeAccountKind),
		nullString(params.ExpenseAccountID), nullString(params.ExpenseAccountKind),
		pq.Array(params.DeviceTokens),
	).Scan(
		&p.UserID, &p.BaseCurrency, &storeKey,
		&incomeID, &incomeKind, &expenseID, &expenseKind,
		pq.Array(&p.DeviceTokens), &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}

	p.StoreAPIKey = storeKey.String
	p.IncomeAccountID = incomeID.String
	p.IncomeAccountKind = incomeKind.String
	p.ExpenseAccountID = expenseID.String
	p.ExpenseAccountKind = expenseKind.String

	return &p, nil
}

// RemoveDeviceToken drops a dead push token wherever it is registered
func (r *PrefsRepository) RemoveDeviceToken(ctx context.Context, token string) error {
	query := `
		UPDATE preferences
		SET device_tokens = array_remove(device_tokens, $1),
		    updated_at = CURRENT_TIMESTAMP
		WHERE $1 = ANY(device_tokens)
	`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
