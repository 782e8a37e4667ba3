// Package leaderboard maintains a points ranking in a Redis sorted set. It is a
// denormalized view of the ledger; updates are best-effort and never block or fail
// a check-in.
package leaderboard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one ranked principal.
type Entry struct {
	Principal string `json:"principal"`
	Points    uint64 `json:"points"`
}

// Board wraps the sorted set.
type Board struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

// New returns a board over the given client. key names the sorted set.
func New(rdb *redis.Client, key string) *Board {
	return &Board{rdb: rdb, key: key, timeout: 2 * time.Second}
}

// Record adds earned points to the principal's score after a committed check-in.
func (b *Board) Record(principal string, earned uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.rdb.ZIncrBy(ctx, b.key, float64(earned), principal).Err()
}

// Top returns the n highest-scoring principals, best first.
func (b *Board) Top(n int64) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		principal, _ := z.Member.(string)
		entries = append(entries, Entry{Principal: principal, Points: uint64(z.Score)})
	}
	return entries, nil
}
