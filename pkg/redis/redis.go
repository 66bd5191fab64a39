package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ikkim/configurator-backend/config"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const previewKeyPrefix = "preview:"

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// PreviewCache maps a configuration fingerprint to the URL of its rendered
// preview for as long as the preview file is retained.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	return &PreviewCache{client: client, ttl: ttl}
}

// Get returns the cached URL, or ok=false on a miss.
func (c *PreviewCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	val, err := c.client.Get(ctx, previewKeyPrefix+fingerprint).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read preview cache", err, map[string]interface{}{
			"fingerprint": fingerprint,
		})
		return "", false, err
	}
	return val, true, nil
}

func (c *PreviewCache) Set(ctx context.Context, fingerprint, url string) error {
	if err := c.client.Set(ctx, previewKeyPrefix+fingerprint, url, c.ttl).Err(); err != nil {
		logger.Error("Failed to write preview cache", err, map[string]interface{}{
			"fingerprint": fingerprint,
		})
		return err
	}
	return nil
}

// Fingerprint hashes a product id, its catalog revision and layer selections
// into a stable key. Layer ids are sorted so map iteration order does not
// matter.
func Fingerprint(productID uint, revision int64, selections map[uint][2]string) string {
	ids := make([]uint, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type entry struct {
		LayerID uint   `json:"l"`
		Name    string `json:"n"`
		Value   string `json:"v"`
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, entry{LayerID: id, Name: selections[id][0], Value: selections[id][1]})
	}

	payload, _ := json.Marshal(struct {
		ProductID uint    `json:"p"`
		Revision  int64   `json:"r"`
		Layers    []entry `json:"s"`
	}{productID, revision, entries})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
