package prefs

import (
	"context"
	"errors"
	"fmt"

	"moneyvoice/internal/infrastructure/crypto"
)

// Service contains the business logic for preference operations. The
// ledger store API key is encrypted before it reaches the repository and
// decrypted on the way out.
type Service struct {
	repo Repository
	enc  *crypto.Encryptor
}

// NewService creates a new preferences service
func NewService(repo Repository, enc *crypto.Encryptor) *Service {
	return &Service{repo: repo, enc: enc}
}

// GetPreferences retrieves a user's preferences with the store key decrypted.
func (s *Service) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}

	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.StoreAPIKey != "" {
		key, err := s.enc.Decrypt(p.StoreAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt store API key: %w", err)
		}
		p.StoreAPIKey = key
	}
	return p, nil
}

// SavePreferences validates and stores a user's preferences.
func (s *Service) SavePreferences(ctx context.Context, params UpsertParams) (*Preferences, error) {
	if params.UserID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	if params.BaseCurrency == "" {
		params.BaseCurrency = "USD"
	}
	if err := validateKind(params.IncomeAccountKind); err != nil {
		return nil, err
	}
	if err := validateKind(params.ExpenseAccountKind); err != nil {
		return nil, err
	}

	if params.StoreAPIKey != "" {
		sealed, err := s.enc.Encrypt(params.StoreAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt store API key: %w", err)
		}
		params.StoreAPIKey = sealed
	}

	p, err := s.repo.Upsert(ctx, params)
	if err != nil {
		return nil, err
	}
	p.StoreAPIKey = "" // never echo the stored key back
	return p, nil
}

func validateKind(kind string) error {
	switch kind {
	case "", "ACCOUNT", "CREDIT_CARD":
		return nil
	default:
		return fmt.Errorf("invalid default account kind %q", kind)
	}
}
