package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

const defaultResetTokenTTL = time.Hour

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
	resetTokenTTL  time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		resetTokenTTL:  defaultResetTokenTTL,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *Service) WithResetTokenTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.resetTokenTTL = ttl
	}
	return s
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates an employee account. Roles are only granted by administrators.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &coreUser.User{
		Email:        dto.Email,
		FullName:     dto.FullName,
		PasswordHash: hash,
		Role:         coreUser.RoleEmployee,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	return s.issue(u)
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	return s.issue(u)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}

	resp, err := s.issue(u)
	if err != nil {
		return AuthTokens{}, err
	}
	return resp.Tokens, nil
}

// Authenticated resolves an access token to the caller it was issued for. The user
// is reloaded so deactivation and role changes take effect immediately.
func (s *Service) Authenticated(ctx context.Context, accessToken string) (*coreUser.Principal, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

// RequestPasswordReset stores a one hour reset token. An unknown email yields an
// empty token and no error so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", internal.NewInternalError("failed to load user", err)
	}
	if u == nil || !u.IsActive {
		s.logger.Info("password reset requested for unknown account")
		return "", nil
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return "", internal.NewInternalError("failed to generate reset token", err)
	}

	expires := s.now().Add(s.resetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, u.ID, token, expires); err != nil {
		return "", internal.NewInternalError("failed to store reset token", err)
	}

	// no mail transport: the token is delivered through the log
	s.logger.Info("password reset token issued", "user_id", u.ID, "reset_token", token, "expires_at", expires)
	return token, nil
}

func (s *Service) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.userForResetToken(ctx, token)
	return err
}

func (s *Service) ResetPassword(ctx context.Context, dto PasswordResetDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.userForResetToken(ctx, dto.Token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password reset completed", "user_id", u.ID)
	return nil
}

func (s *Service) userForResetToken(ctx context.Context, token string) (*coreUser.User, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}
	u, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		return nil, internal.NewInternalError("failed to load reset token", err)
	}
	if u == nil || u.ResetTokenExpires == nil || s.now().After(*u.ResetTokenExpires) {
		return nil, ErrInvalidResetToken
	}
	return u, nil
}

func (s *Service) activeUser(ctx context.Context, id int64) (*coreUser.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issue(u *coreUser.User) (*AuthResponse, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}

	return &AuthResponse{
		User: toUserView(u),
		Tokens: AuthTokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
		},
	}, nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
