package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a global Redis client instance (nil when not configured or unreachable)
var RedisClient *redis.Client

func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		RedisClient = nil
		return
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	})
}

// ProbeRedis pings the client and disables it when unreachable. Returns a status line.
func ProbeRedis() string {
	if RedisClient == nil {
		return "Redis not configured, flash messages kept in process memory."
	}
	ctx, cancel := context.WithTimeout(RedisCtx(), 2*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		RedisClient = nil
		return "Redis configured but not reachable, flash messages kept in process memory."
	}
	return "Redis connection successful."
}

func RedisCtx() context.Context {
	return context.Background()
}
