package cache

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const dropdownTTL = 10 * time.Minute

var client *redis.Client

// Init initializes the Redis connection. The cache is optional: when redis
// is unreachable every helper degrades to a miss.
func Init() error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

func dropdownKey(entity string) string {
	return "dropdown:" + entity
}

// GetDropdown returns the cached dropdown payload for an entity type
func GetDropdown(ctx context.Context, entity string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, dropdownKey(entity)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheDropdown caches a dropdown payload keyed by entity type
func CacheDropdown(ctx context.Context, entity string, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, dropdownKey(entity), data, dropdownTTL)
}

// InvalidateEntity drops cached projections for an entity type. Called by
// every mutating handler for that entity.
func InvalidateEntity(ctx context.Context, entity string) {
	if client == nil {
		return
	}
	client.Del(ctx, dropdownKey(entity))
}
