package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vadim/social-pulse/internal/domain/account/dao"
	"github.com/vadim/social-pulse/internal/domain/account/entity"
)

// Service manages tracked accounts and the shared access credential.
type Service struct {
	accounts    dao.AccountRepository
	credentials dao.CredentialRepository
	logger      *slog.Logger
}

// New creates a new account service
func New(accounts dao.AccountRepository, credentials dao.CredentialRepository, logger *slog.Logger) *Service {
	return &Service{
		accounts:    accounts,
		credentials: credentials,
		logger:      logger,
	}
}

// RegisterInput represents input for registering a tracked account
type RegisterInput struct {
	ExternalID string
	Username   string
}

// Register adds an account to the tracked set. Registering an already
// known account is a no-op and returns the stored row.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Account, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	if in.ExternalID == "" {
		return nil, entity.ErrEmptyAccountID
	}

	account := &entity.Account{
		ExternalID: in.ExternalID,
		Username:   strings.TrimSpace(in.Username),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("registering account: %w", err)
	}

	stored, err := s.accounts.GetByExternalID(ctx, in.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if stored == nil {
		return nil, entity.ErrAccountNotFound
	}

	s.logger.Info("account registered", "account_id", stored.ExternalID, "username", stored.Username)
	return stored, nil
}

// Get retrieves a tracked account
func (s *Service) Get(ctx context.Context, externalID string) (*entity.Account, error) {
	account, err := s.accounts.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return nil, entity.ErrAccountNotFound
	}
	return account, nil
}

// List retrieves all tracked accounts
func (s *Service) List(ctx context.Context) ([]entity.Account, error) {
	return s.accounts.List(ctx)
}

// SetCredential stores an access token for the account, superseding any
// previously stored credential. The system keeps at most one credential.
func (s *Service) SetCredential(ctx context.Context, accountID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.ErrEmptyToken
	}

	account, err := s.accounts.GetByExternalID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return entity.ErrAccountNotFound
	}

	cred := &entity.Credential{Token: token, AccountID: accountID}
	if err := s.credentials.Replace(ctx, cred); err != nil {
		return fmt.Errorf("replacing credential: %w", err)
	}

	s.logger.Info("credential replaced", "account_id", accountID)
	return nil
}

// GetCredential retrieves the current access credential, or
// ErrCredentialNotFound when none is stored.
func (s *Service) GetCredential(ctx context.Context) (*entity.Credential, error) {
	cred, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if cred == nil {
		return nil, entity.ErrCredentialNotFound
	}
	return cred, nil
}

// DeleteData removes everything the account owns (posts, comments,
// authors, stories, demographics) but keeps the account registered, so
// the next sync starts from a clean slate.
func (s *Service) DeleteData(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByExternalID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return entity.ErrAccountNotFound
	}

	if err := s.accounts.DeleteData(ctx, accountID); err != nil {
		return fmt.Errorf("deleting account data: %w", err)
	}

	s.logger.Info("account data deleted", "account_id", accountID)
	return nil
}

// Delete removes the account, its credential and everything it owns.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByExternalID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return entity.ErrAccountNotFound
	}

	if err := s.credentials.DeleteByAccount(ctx, accountID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.logger.Info("account deleted", "account_id", accountID)
	return nil
}
