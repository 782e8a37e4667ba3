package utils

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainledge/tickpoints/config"
)

// redisNamespace prefixes every key this service owns, so the balance hash and
// the leaderboard set never collide with other tenants of a shared instance.
const redisNamespace = "tickpoints"

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// RedisKey builds a namespaced key, e.g. RedisKey("balances") -> "tickpoints:balances".
func RedisKey(parts ...string) string {
	return strings.Join(append([]string{redisNamespace}, parts...), ":")
}

// GetRedis returns a singleton Redis client based on loaded config. The pool is
// sized for the service's two consumers, the settlement book and the leaderboard.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			PoolSize:     20,
			MinIdleConns: 2,
		})
		// Ping only to validate reachability; balance and leaderboard paths report
		// their own errors.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = redisClient.Ping(ctx).Err()
	})
	return redisClient
}
