package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// transferScript checks, debits and credits in one server-side step so a transfer
// can never partially apply.
var transferScript = redis.NewScript(`
local from = ARGV[1]
local to = ARGV[2]
local amount = tonumber(ARGV[3])
local balance = tonumber(redis.call('HGET', KEYS[1], from) or '0')
if balance < amount then
	return -1
end
redis.call('HINCRBY', KEYS[1], from, -amount)
redis.call('HINCRBY', KEYS[1], to, amount)
return redis.call('HGET', KEYS[1], from)
`)

// RedisBook keeps balances in a Redis hash, one field per principal.
type RedisBook struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisBook wraps an existing client. key names the balance hash.
func NewRedisBook(rdb *redis.Client, key string) *RedisBook {
	return &RedisBook{rdb: rdb, key: key, timeout: 2 * time.Second}
}

// Deposit credits amount to principal.
func (b *RedisBook) Deposit(principal string, amount uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.rdb.HIncrBy(ctx, b.key, principal, int64(amount)).Err()
}

// Balance reads principal's current balance. A missing field reads as zero.
func (b *RedisBook) Balance(principal string) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	val, err := b.rdb.HGet(ctx, b.key, principal).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Transfer runs the debit/credit script against the balance hash.
func (b *RedisBook) Transfer(from, to string, amount uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	res, err := transferScript.Run(ctx, b.rdb, []string{b.key}, from, to, amount).Int64()
	if err != nil {
		return fmt.Errorf("transfer script: %w", err)
	}
	if res < 0 {
		return fmt.Errorf("%w: %s needs %d", ErrInsufficientFunds, from, amount)
	}
	return nil
}
