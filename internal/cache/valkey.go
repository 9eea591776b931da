package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

// ValkeyClient owns the read-side cache keys the booking API serves
// availability and event pages from.
type ValkeyClient struct {
	client redis.UniversalClient
	prefix string
}

func NewValkeyClient(ctx context.Context, cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return NewValkeyClientFromRedis(rdb, cfg.KeyPrefix), nil
}

func NewValkeyClientFromRedis(client redis.UniversalClient, prefix string) *ValkeyClient {
	return &ValkeyClient{client: client, prefix: prefix}
}

// SeatAvailabilityKey is the cached availability document of a seat category.
func (v *ValkeyClient) SeatAvailabilityKey(seatCategoryID string) string {
	return fmt.Sprintf("%s:seat_category:%s:availability", v.prefix, seatCategoryID)
}

// EventKey is the cached event page.
func (v *ValkeyClient) EventKey(slug string) string {
	return fmt.Sprintf("%s:event:%s", v.prefix, slug)
}

// InvalidateSeatCategories drops cached availability for the given categories.
func (v *ValkeyClient) InvalidateSeatCategories(ctx context.Context, ids []string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = v.SeatAvailabilityKey(id)
	}
	return v.del(ctx, keys)
}

// InvalidateEvents drops cached event pages for the given slugs.
func (v *ValkeyClient) InvalidateEvents(ctx context.Context, slugs []string) error {
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = v.EventKey(slug)
	}
	return v.del(ctx, keys)
}

func (v *ValkeyClient) del(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := v.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidation error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
