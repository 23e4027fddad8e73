package repository

import (
	"context"
	"errors"
	"log/slog"

	"digitalwallet/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type UserPGRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewUserPGRepository(store *Store, logger *slog.Logger) *UserPGRepository {
	return &UserPGRepository{store: store, logger: logger}
}

func (r *UserPGRepository) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.MembershipStatus)
	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.RoleUser
	return &u, nil
}

func (r *UserPGRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.store.Pool.QueryRow(ctx,
		"SELECT id, email, username, password, subscription_status FROM users WHERE username = $1", username)
	user, err := r.scanUser(row)
	if err != nil && err != ErrUserNotFound {
		r.logger.Error("Failed to find user by username",
			slog.String("username", username),
			slog.Any("err", err),
		)
	}
	return user, err
}

func (r *UserPGRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.store.Pool.QueryRow(ctx,
		"SELECT id, email, username, password, subscription_status FROM users WHERE id = $1", id)
	user, err := r.scanUser(row)
	if err != nil && err != ErrUserNotFound {
		r.logger.Error("Failed to find user by id",
			slog.Int64("user_id", id),
			slog.Any("err", err),
		)
	}
	return user, err
}

func (r *UserPGRepository) Insert(ctx context.Context, user *models.User) (int64, error) {
	var id int64
	err := r.store.Pool.QueryRow(ctx, `
		INSERT INTO users (email, username, password, subscription_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		user.Email, user.Username, user.Password, user.MembershipStatus,
	).Scan(&id)
	if err != nil {
		if !IsUniqueViolation(err) {
			r.logger.Error("Failed to insert user",
				slog.String("username", user.Username),
				slog.Any("err", err),
			)
		}
		return 0, err
	}
	return id, nil
}
