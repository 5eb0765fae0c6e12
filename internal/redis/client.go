package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"workspace-service/internal/config"
	"workspace-service/internal/models"
)

// Client wraps the Redis client with application-specific methods
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key prefixes
const (
	ReservedSlugsKey = "slugs:reserved"
)

// ReservedSlugCacheTTL bounds how stale the shared reserved-slug cache can get
const ReservedSlugCacheTTL = 5 * time.Minute

// GetReservedSlugs retrieves the cached reserved slug list.
// Workspace, member and invitation records are deliberately never cached;
// only this slow-changing lookup table is.
func (c *Client) GetReservedSlugs(ctx context.Context) ([]models.ReservedSlug, error) {
	data, err := c.rdb.Get(ctx, ReservedSlugsKey).Bytes()
	if err == redis.Nil {
		return nil, nil // Not cached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reserved slugs: %w", err)
	}

	var slugs []models.ReservedSlug
	if err := json.Unmarshal(data, &slugs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reserved slugs: %w", err)
	}

	return slugs, nil
}

// SetReservedSlugs caches the reserved slug list shared across replicas
func (c *Client) SetReservedSlugs(ctx context.Context, slugs []models.ReservedSlug) error {
	jsonData, err := json.Marshal(slugs)
	if err != nil {
		return fmt.Errorf("failed to marshal reserved slugs: %w", err)
	}

	return c.rdb.Set(ctx, ReservedSlugsKey, jsonData, ReservedSlugCacheTTL).Err()
}

// InvalidateReservedSlugs drops the cached list so every replica reloads
// from the database on next lookup
func (c *Client) InvalidateReservedSlugs(ctx context.Context) error {
	return c.rdb.Del(ctx, ReservedSlugsKey).Err()
}
