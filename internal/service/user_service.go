package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/metrics"
	"slotbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UserService struct {
	repo     domain.UserRepository
	hasher   domain.PasswordHasher
	tokens   domain.TokenIssuer
	limiter  domain.AttemptLimiter
	eventBus domain.EventPublisher
	config   config.AuthConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

var _ domain.UserService = (*UserService)(nil)

func NewUserService(
	repo domain.UserRepository,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	limiter domain.AttemptLimiter,
	eventBus domain.EventPublisher,
	cfg config.AuthConfig,
	logger *zerolog.Logger,
) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = models.DefaultLoginAttempts
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = models.DefaultLoginWindow * time.Second
	}
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		eventBus: eventBus,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "email is required")
	}
	if password == "" {
		verr.Add("password", "password is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventUserRegistered, events.UserEventPayload{UserID: user.ID}); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("publish event error")
		}
	}
	return user, nil
}

// Authenticate returns a signed access token. Unknown email and wrong password
// both yield domain.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.IncAuthFailure("invalid_credentials")
		return "", domain.ErrInvalidCredentials
	}

	if err := s.checkAttempts(ctx, email); err != nil {
		return "", err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncAuthFailure("invalid_credentials")
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.IncAuthFailure("invalid_credentials")
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to reset login attempts")
		}
	}
	return token, nil
}

// checkAttempts fails open when the limiter itself errors.
func (s *UserService) checkAttempts(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, email, s.config.LoginAttempts, s.config.LoginWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login attempt limiter unavailable")
		return nil
	}
	if !allowed {
		metrics.IncAuthFailure("throttled")
		s.logger.Warn().Str("email", email).Msg("Login attempts exceeded")
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *UserService) Me(ctx context.Context, caller models.CallerIdentity) (*models.User, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.repo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The token outlived its user.
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) VerifyToken(token string) (models.CallerIdentity, error) {
	caller, err := s.tokens.Verify(token)
	if err != nil {
		metrics.IncAuthFailure("invalid_token")
		return models.CallerIdentity{}, domain.ErrUnauthorized
	}
	return caller, nil
}
