// Package services contains the server's business logic: account sign-up
// and sign-in with rotating refresh tokens, and the collection reads and
// writes behind the data service.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/cryptox"
	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/server/auth"
	"github.com/dmitrijs2005/restaurant/internal/server/config"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// TokenPair bundles a short-lived access token and a single-use refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is what a successful SignUp, SignIn or Refresh yields.
type Session struct {
	Account *models.Account
	Tokens  *TokenPair
}

type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	validate                     *validator.Validate
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	maxSignInAttempts            int
	lockoutDuration              time.Duration
	now                          func() time.Time
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		validate:                     validator.New(),
		logger:                       l.With("module", "identity"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		maxSignInAttempts:            cfg.MaxSignInAttempts,
		lockoutDuration:              cfg.LockoutDuration,
		now:                          time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *IdentityService) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	salt := cryptox.NewSalt()
	acc := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Salt:         salt,
		PasswordHash: cryptox.HashPassword([]byte(password), salt),
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Create(ctx, acc); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return ErrEmailInUse
			}
			return fmt.Errorf("error creating account: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, acc.ID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account created", "uid", acc.ID)
	return &Session{Account: acc, Tokens: pair}, nil
}

// SignIn checks the password of the account registered for email. After
// maxSignInAttempts consecutive failures the account refuses sign-in for
// lockoutDuration.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	repo := s.repomanager.Accounts(s.db)
	acc, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	now := s.now()
	if acc.Locked(now) {
		return nil, ErrTooManyRequests
	}

	if !cryptox.VerifyPassword([]byte(password), acc.Salt, acc.PasswordHash) {
		return nil, s.recordFailure(ctx, acc, now)
	}

	if acc.FailedAttempts > 0 || acc.LockedUntil != nil {
		if err := repo.SetSignInState(ctx, acc.ID, 0, nil); err != nil {
			s.logger.Warn(ctx, "failed to reset sign-in attempts", "uid", acc.ID, "error", err)
		}
		acc.FailedAttempts, acc.LockedUntil = 0, nil
	}

	pair, err := s.generateTokenPair(ctx, acc.ID, s.db)
	if err != nil {
		return nil, err
	}
	return &Session{Account: acc, Tokens: pair}, nil
}

func (s *IdentityService) recordFailure(ctx context.Context, acc *models.Account, now time.Time) error {
	repo := s.repomanager.Accounts(s.db)
	attempts := acc.FailedAttempts + 1

	if s.maxSignInAttempts > 0 && attempts >= s.maxSignInAttempts {
		until := now.Add(s.lockoutDuration)
		if err := repo.SetSignInState(ctx, acc.ID, 0, &until); err != nil {
			s.logger.Error(ctx, "failed to lock account", "uid", acc.ID, "error", err)
		}
		s.logger.Warn(ctx, "account locked after failed sign-ins", "uid", acc.ID, "until", until)
		return ErrTooManyRequests
	}

	if err := repo.SetSignInState(ctx, acc.ID, attempts, nil); err != nil {
		s.logger.Error(ctx, "failed to record sign-in attempt", "uid", acc.ID, "error", err)
	}
	return ErrWrongPassword
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// deleted in the same transaction that stores its successor.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		if err := repo.Delete(ctx, refreshToken); err != nil {
			s.logger.Warn(ctx, "failed to delete expired refresh token", "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	acc, err := s.repomanager.Accounts(s.db).GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, acc.ID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return &Session{Account: acc, Tokens: pair}, nil
}

// SignOut revokes refreshToken. Unknown tokens are ignored.
func (s *IdentityService) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate returns the account uid carried by an access token.
func (s *IdentityService) Authenticate(accessToken string) (string, error) {
	return auth.GetUserIDFromToken(accessToken, s.jwtSecret)
}

func (s *IdentityService) generateTokenPair(ctx context.Context, accountID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
