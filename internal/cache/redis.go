package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var Client *redis.Client

// InitRedis initializes Redis connection
func InitRedis(addr, password string, db int) error {
	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✓ Redis connected successfully")
	return nil
}

// Close closes the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}

// AcquireLock takes a best-effort distributed lease so only one instance
// runs a given background job at a time. Returns false when another holder
// has the lease.
func AcquireLock(ctx context.Context, client *redis.Client, key, owner string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, key, owner, ttl).Result()
}

// releaseScript deletes the lease only while this owner still holds it,
// in a single server-side step so an expired lease re-acquired by another
// instance is never deleted out from under it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ReleaseLock drops the lease if this owner still holds it.
func ReleaseLock(ctx context.Context, client *redis.Client, key, owner string) error {
	err := releaseScript.Run(ctx, client, []string{key}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
