package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"bidhouse/internal/auctionerrors"
	"bidhouse/internal/clock"
	"bidhouse/internal/models"
	"bidhouse/internal/repository"
)

const minPasswordLength = 8

// Provider resolves request credentials to user identities. It owns password
// hashing and token issuance; the auction core only ever sees the resolved
// models.User.
type Provider struct {
	repo       repository.Store
	signingKey []byte
	tokenTTL   time.Duration
	clk        clock.Clock
}

// NewProvider creates a Provider. The signing key must not be empty.
func NewProvider(repo repository.Store, signingKey string, tokenTTL time.Duration, clk clock.Clock) (*Provider, error) {
	if signingKey == "" {
		return nil, errors.New("identity: empty signing key")
	}
	return &Provider{
		repo:       repo,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		clk:        clk,
	}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (p *Provider) Register(username, password string, isAdmin bool) (models.User, error) {
	if username == "" {
		return models.User{}, fmt.Errorf("identity: %w - username is required", auctionerrors.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return models.User{}, fmt.Errorf("identity: %w - password must be at least %d characters", auctionerrors.ErrValidation, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("identity: failed to hash password: %w", err)
	}

	user, err := p.repo.CreateUser(models.User{
		Username:     username,
		PasswordHash: string(hashed),
		IsAdmin:      isAdmin,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("identity: failed to create user %q: %w", username, err)
	}
	return user, nil
}

// Login verifies the credentials and returns a signed access token.
func (p *Provider) Login(username, password string) (string, error) {
	user, err := p.repo.GetUserByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return "", fmt.Errorf("identity: %w", auctionerrors.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("identity: %w", auctionerrors.ErrUnauthorized)
	}

	now := p.clk.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   user.Username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(p.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("identity: failed to sign token: %w", err)
	}
	return signed, nil
}

// CurrentUser resolves an access token to the user it was issued for.
func (p *Provider) CurrentUser(accessToken string) (models.User, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.signingKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return models.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrUnauthorized)
	}

	user, err := p.repo.GetUserByUsername(claims.Subject)
	if err != nil {
		return models.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrUnauthorized)
	}
	return user, nil
}

// RequireAdmin rejects users without the admin flag.
func (p *Provider) RequireAdmin(user models.User) error {
	if !user.IsAdmin {
		return fmt.Errorf("identity: %w", auctionerrors.ErrForbidden)
	}
	return nil
}
