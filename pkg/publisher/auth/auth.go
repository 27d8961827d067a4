// Package auth handles credential verification and token issuance. Tokens
// carry the user's token_epoch; bumping the stored epoch (on block or
// password change) voids every token issued before the bump.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

const defaultTokenTTL = 24 * time.Hour

// Authenticator issues and validates tokens against the user store and the
// trust gate.
type Authenticator struct {
	tokenAuth *jwtauth.JWTAuth
	repo      publisher.Repository
	svc       publisher.Service
	tokenTTL  time.Duration
}

// New creates an Authenticator signing with HS256 over the given secret.
func New(secret []byte, repo publisher.Repository, svc publisher.Service, tokenTTL time.Duration) *Authenticator {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &Authenticator{
		tokenAuth: jwtauth.New("HS256", secret, nil),
		repo:      repo,
		svc:       svc,
		tokenTTL:  tokenTTL,
	}
}

// TokenAuth exposes the underlying verifier for router middleware.
func (a *Authenticator) TokenAuth() *jwtauth.JWTAuth {
	return a.tokenAuth
}

// RegisterRequest carries a signup.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account with the base role.
func (a *Authenticator) Register(ctx context.Context, req RegisterRequest) (*publisher.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, publisher.NewValidationError("name", "name is required")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, publisher.NewValidationError("email", "a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, publisher.NewValidationError("password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &publisher.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         publisher.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and the trust gate, then issues a token.
// Blocked accounts fail with ErrAccountBlocked even on a correct password.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*publisher.User, string, error) {
	user, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, publisher.ErrNotFound) {
			return nil, "", publisher.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", publisher.ErrInvalidCredentials
	}

	blocked, err := a.svc.IsBlocked(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	if blocked {
		return nil, "", publisher.ErrAccountBlocked
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a token for the user embedding the current token epoch.
func (a *Authenticator) IssueToken(user *publisher.User) (string, error) {
	claims := map[string]interface{}{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"epoch":   user.TokenEpoch,
	}
	jwtauth.SetExpiryIn(claims, a.tokenTTL)
	jwtauth.SetIssuedNow(claims)

	_, tokenString, err := a.tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return tokenString, nil
}

// ChangePassword sets a new password and revokes all outstanding tokens.
func (a *Authenticator) ChangePassword(ctx context.Context, actor *publisher.User, current, next string) error {
	if actor == nil {
		return publisher.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)); err != nil {
		return publisher.ErrInvalidCredentials
	}
	if len(next) < 8 {
		return publisher.NewValidationError("password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return a.repo.WithTx(ctx, func(tx publisher.Repository) error {
		if err := tx.UpdateUserPassword(ctx, actor.ID, string(hash)); err != nil {
			return err
		}
		return tx.BumpTokenEpoch(ctx, actor.ID)
	})
}

// UserFromClaims resolves token claims to a live user, enforcing the epoch
// and the trust gate on every authenticated request.
func (a *Authenticator) UserFromClaims(ctx context.Context, claims map[string]interface{}) (*publisher.User, error) {
	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, publisher.ErrUnauthorized
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, publisher.ErrUnauthorized
	}

	user, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, publisher.ErrNotFound) {
			return nil, publisher.ErrUnauthorized
		}
		return nil, err
	}

	// Claims decode numbers as float64.
	epoch, ok := claims["epoch"].(float64)
	if !ok || int(epoch) != user.TokenEpoch {
		return nil, publisher.ErrUnauthorized
	}

	blocked, err := a.svc.IsBlocked(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, publisher.ErrAccountBlocked
	}
	return user, nil
}
