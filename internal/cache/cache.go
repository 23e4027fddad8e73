package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"digitalwallet/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through performance hint over the wallet store. Losing its
// contents never changes correctness; read errors degrade to a miss.
type Cache interface {
	GetWallet(ctx context.Context, id int64) (*models.Wallet, bool)
	SetWallet(ctx context.Context, wallet *models.Wallet)
	EvictWallet(ctx context.Context, id int64)
	GetUserWallets(ctx context.Context, userID int64) ([]models.Wallet, bool)
	SetUserWallets(ctx context.Context, userID int64, wallets []models.Wallet)
	EvictUserWallets(ctx context.Context, userID int64)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func walletKey(id int64) string      { return fmt.Sprintf("wallets:%d", id) }
func userWalletsKey(id int64) string { return fmt.Sprintf("walletsByUser:%d", id) }

func (c *RedisCache) GetWallet(ctx context.Context, id int64) (*models.Wallet, bool) {
	data, err := c.client.Get(ctx, walletKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", slog.String("key", walletKey(id)), slog.Any("err", err))
		}
		return nil, false
	}
	var w models.Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	return &w, true
}

func (c *RedisCache) SetWallet(ctx context.Context, wallet *models.Wallet) {
	if wallet == nil {
		return
	}
	data, err := json.Marshal(wallet)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, walletKey(wallet.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", slog.String("key", walletKey(wallet.ID)), slog.Any("err", err))
	}
}

func (c *RedisCache) EvictWallet(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, walletKey(id)).Err(); err != nil {
		c.logger.Warn("Cache evict failed", slog.String("key", walletKey(id)), slog.Any("err", err))
	}
}

func (c *RedisCache) GetUserWallets(ctx context.Context, userID int64) ([]models.Wallet, bool) {
	data, err := c.client.Get(ctx, userWalletsKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", slog.String("key", userWalletsKey(userID)), slog.Any("err", err))
		}
		return nil, false
	}
	var wallets []models.Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, false
	}
	return wallets, true
}

func (c *RedisCache) SetUserWallets(ctx context.Context, userID int64, wallets []models.Wallet) {
	if len(wallets) == 0 {
		return // nulls and empty sets are not cached
	}
	data, err := json.Marshal(wallets)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, userWalletsKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", slog.String("key", userWalletsKey(userID)), slog.Any("err", err))
	}
}

func (c *RedisCache) EvictUserWallets(ctx context.Context, userID int64) {
	if err := c.client.Del(ctx, userWalletsKey(userID)).Err(); err != nil {
		c.logger.Warn("Cache evict failed", slog.String("key", userWalletsKey(userID)), slog.Any("err", err))
	}
}

// Noop is used when no redis address is configured.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) GetWallet(context.Context, int64) (*models.Wallet, bool)   { return nil, false }
func (Noop) SetWallet(context.Context, *models.Wallet)                 {}
func (Noop) EvictWallet(context.Context, int64)                        {}
func (Noop) GetUserWallets(context.Context, int64) ([]models.Wallet, bool) {
	return nil, false
}
func (Noop) SetUserWallets(context.Context, int64, []models.Wallet) {}
func (Noop) EvictUserWallets(context.Context, int64)                {}
