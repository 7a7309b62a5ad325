package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch-service/internal/auth"
	"dispatch-service/internal/model"
)

const minPasswordLength = 8

type AuthService struct {
	users  UserStore
	issuer *auth.Issuer
}

func NewAuthService(users UserStore, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.Active || !s.issuer.CheckPassword(password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	var driverID *uuid.UUID
	driver, err := s.users.DriverByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if driver != nil {
		driverID = &driver.ID
	}

	token, expiresAt, err := s.issuer.Issue(user, driverID)
	if err != nil {
		return nil, err
	}

	return &model.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, principal model.Principal, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrInvalidInput
	}

	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.issuer.CheckPassword(current, user.PasswordHash) {
		return ErrUnauthorized
	}

	hash, err := s.issuer.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}
