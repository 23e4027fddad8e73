package service

import (
	"context"
	"errors"
	"log/slog"

	"digitalwallet/internal/auth"
	"digitalwallet/internal/models"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/repository"
)

type UserService struct {
	users   UserRepository
	tokens  *auth.TokenManager
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func NewUserService(users UserRepository, tokens *auth.TokenManager, limiter *ratelimit.Limiter, logger *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, limiter: limiter, logger: logger}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) error {
	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password",
			slog.String("username", req.Username),
			slog.Any("err", err),
		)
		return err
	}

	status := req.Status
	if status == "" {
		status = models.MembershipFree
	}

	user := &models.User{
		Email:            req.Email,
		Username:         req.Username,
		Password:         hash,
		MembershipStatus: status,
		Role:             models.RoleUser,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		// Concurrent registration of the same username loses the race here.
		if repository.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	if !s.limiter.Allow("login", req.Username) {
		s.logger.Warn("Login rate limited", slog.String("username", req.Username))
		return "", ErrRateLimited
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn("Login failed: bad credentials", slog.String("username", req.Username))
		return "", ErrBadCredentials
	}

	return s.tokens.Generate(user.Username)
}

// ResolvePrincipal maps a verified token subject to the user record that
// downstream services treat as the request principal.
func (s *UserService) ResolvePrincipal(ctx context.Context, username string) (*models.User, error) {
	return s.users.FindByUsername(ctx, username)
}
