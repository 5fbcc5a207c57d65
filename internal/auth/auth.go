package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(u *coreUser.User) (string, error)
	GenerateRefreshToken(u *coreUser.User) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	AccessTTL() time.Duration
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*coreUser.User, error)
	GetByID(ctx context.Context, id int64) (*coreUser.User, error)
	Create(ctx context.Context, u *coreUser.User) error
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (*coreUser.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrEmailTaken        = internal.NewConflictError("email already registered", internal.ErrCodeDuplicateEmail)
	ErrInvalidResetToken = internal.NewValidationError("invalid or expired reset token", internal.ErrCodeInvalidToken)
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
