package service

import (
	"context"
	"errors"
	"fmt"

	"dalia-manager/internal/models"
	"dalia-manager/internal/store"
	"dalia-manager/internal/token"
	"dalia-manager/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown operators and bad passwords
// alike, so login failures never reveal which of the two it was
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates dashboard operators
type AuthService struct {
	store  *store.Store
	tokens *token.Service
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *store.Store, tokens *token.Service) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// LoginRequest carries operator credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token    string `json:"token"`
	Operator struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"operator"`
}

// Login verifies the operator's password and issues a JWT
func (a *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	operator, err := a.store.GetOperatorByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(req.Password)); err != nil {
		a.logger.Warn("Login rejected", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	signed, err := a.tokens.Generate(operator.ID, operator.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	resp := &LoginResponse{Token: signed}
	resp.Operator.ID = operator.ID
	resp.Operator.Email = operator.Email
	resp.Operator.Name = operator.Name

	a.logger.Info("Operator logged in", zap.String("operator_id", operator.ID))
	return resp, nil
}
