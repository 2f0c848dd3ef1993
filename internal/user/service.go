// Package user covers registration, login and profile lookup for both sides
// of the marketplace.
package user

import (
	"context"
	"errors"
	"log"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

type UserStore interface {
	Create(ctx context.Context, user *dbmongo.User) error
	ByID(ctx context.Context, id string) (*dbmongo.User, error)
	ByEmail(ctx context.Context, email string) (*dbmongo.User, error)
	TouchLastActive(ctx context.Context, id string) error
}

type Service struct {
	store       UserStore
	email       common.EmailService // nil when SMTP is not configured
	frontendURL string
}

func NewService(store UserStore, email common.EmailService, frontendURL string) *Service {
	return &Service{store: store, email: email, frontendURL: frontendURL}
}

type RegisterInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	UserType common.UserType `json:"userType"`
}

// AuthResult pairs the stored profile with a fresh session token.
type AuthResult struct {
	User  *dbmongo.User `json:"user"`
	Token string        `json:"token"`
}

// Register creates the account, sends the welcome email (best-effort) and
// signs the first session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := common.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if err := common.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := common.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if !in.UserType.Valid() {
		return nil, common.NewValidationError("userType", "must be innovator or investor")
	}

	hash, err := common.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &dbmongo.User{
		Name:                 in.Name,
		Email:                in.Email,
		PasswordHash:         hash,
		UserType:             in.UserType,
		NotificationsEnabled: true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.email != nil {
		go func() {
			err := s.email.SendTemplate(u.Email, "Welcome to InnovateFund!", "welcome", map[string]any{
				"Name":        u.Name,
				"UserType":    string(u.UserType),
				"FrontendURL": s.frontendURL,
			})
			if err != nil {
				log.Printf("user: welcome email to %s failed: %v", u.Email, err)
			}
		}()
	}

	token, err := common.GenerateToken(u.ID.Hex(), u.UserType)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

// Login verifies credentials. Wrong email and wrong password answer
// identically so the endpoint does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, &common.AuthenticationError{Reason: "invalid credentials"}
		}
		return nil, err
	}
	if !common.CheckPassword(u.PasswordHash, password) {
		return nil, &common.AuthenticationError{Reason: "invalid credentials"}
	}

	if err := s.store.TouchLastActive(ctx, u.ID.Hex()); err != nil {
		log.Printf("user: failed to touch last_active for %s: %v", u.ID.Hex(), err)
	}

	token, err := common.GenerateToken(u.ID.Hex(), u.UserType)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) ByID(ctx context.Context, id string) (*dbmongo.User, error) {
	return s.store.ByID(ctx, id)
}
