// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"limora/config"

	"github.com/go-redis/redis/v8"
)

var (
	// EventBusClient delivers customer selection events to waiting workflow runs.
	EventBusClient *redis.Client
	// ResponseCacheClient caches provider responded-counts for the polling loop.
	ResponseCacheClient *redis.Client
)

// InitEventBus initializes the Redis client used as the selection event bus.
func InitEventBus() {
	EventBusClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := EventBusClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Event Bus): %v", err)
	}
}

// GetEventBusClient returns the selection event bus client.
func GetEventBusClient() *redis.Client {
	if EventBusClient == nil {
		InitEventBus()
	}
	return EventBusClient
}

// InitResponseCache initializes the Redis client for response-count caching.
func InitResponseCache() {
	ResponseCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := ResponseCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Response Cache): %v", err)
	}
}

// GetResponseCacheClient returns the response-count cache client.
func GetResponseCacheClient() *redis.Client {
	if ResponseCacheClient == nil {
		InitResponseCache()
	}
	return ResponseCacheClient
}

// InitRedis initializes all Redis clients eagerly at startup.
func InitRedis() {
	InitEventBus()
	InitResponseCache()
}
