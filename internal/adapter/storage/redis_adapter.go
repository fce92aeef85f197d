package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/port"
)

const balanceKeyPrefix = "balance:"

var transferScript = redis.NewScript(`
local from = KEYS[1]
local to = KEYS[2]
local amount = tonumber(ARGV[1])

local balance = tonumber(redis.call('GET', from))
if not balance or balance < amount then
	return 0
end

redis.call('DECRBY', from, amount)
redis.call('INCRBY', to, amount)
return 1
`)

// RedisLedger is a Redis-backed currency ledger. The debit and credit run
// in one Lua script, so either the full amount moves or nothing does.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (r *RedisLedger) Transfer(ctx context.Context, from, to domain.AccountID, amount uint64) error {
	result, err := transferScript.Run(ctx, r.client, []string{balanceKey(from), balanceKey(to)}, amount).Int()
	if err != nil {
		return fmt.Errorf("run transfer script: %w", err)
	}
	if result != 1 {
		return port.ErrInsufficientFunds
	}
	return nil
}

// SetBalance provisions an account balance, overwriting any previous value.
func (r *RedisLedger) SetBalance(ctx context.Context, account domain.AccountID, amount uint64) error {
	return r.client.Set(ctx, balanceKey(account), amount, 0).Err()
}

// Balance reads an account balance; missing accounts read as zero.
func (r *RedisLedger) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	v, err := r.client.Get(ctx, balanceKey(account)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return v, nil
}

func balanceKey(account domain.AccountID) string {
	return balanceKeyPrefix + strconv.FormatUint(uint64(account), 10)
}
