package services

import (
	"fmt"

	"devconnect/auth"
	apperrors "devconnect/errors"
	"devconnect/repositories"
)

type Token string

type IAuthService interface {
	Register(email, name, password string) (Token, error)
	Login(email, password string) (Token, error)
}

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(email, name, password string) (Token, error) {
	req := auth.RegisterRequest{Email: email, Name: name, Password: password}

	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.users.CreateUser(email, name, hashedPassword)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", apperrors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", apperrors.ErrTokenGeneration
	}
	return Token(token), nil
}
