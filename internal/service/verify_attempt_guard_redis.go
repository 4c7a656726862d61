package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

var redisVerifyAttemptBumpScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local base_ms = tonumber(ARGV[2])
local multiplier = tonumber(ARGV[3])
local max_ms = tonumber(ARGV[4])
local reset_ms = tonumber(ARGV[5])
local free_attempts = tonumber(ARGV[6])

local key = KEYS[1]
local fail_count = tonumber(redis.call("HGET", key, "fail_count") or "0")
local last_failure_ms = tonumber(redis.call("HGET", key, "last_failure_ms") or "0")

if last_failure_ms == 0 or (now_ms - last_failure_ms) > reset_ms then
  fail_count = 0
end

fail_count = fail_count + 1
local delay = 0
if fail_count > free_attempts then
  delay = math.floor(base_ms * (multiplier ^ (fail_count - free_attempts - 1)))
end
if delay > max_ms then
  delay = max_ms
end

local cooldown_until_ms = now_ms + delay
redis.call("HSET", key, "fail_count", tostring(fail_count), "last_failure_ms", tostring(now_ms), "cooldown_until_ms", tostring(cooldown_until_ms))
redis.call("PEXPIRE", key, reset_ms + delay + 60000)
return delay
`)

type RedisVerifyAttemptGuard struct {
	client redis.UniversalClient
	prefix string
	policy VerifyAttemptPolicy
	clock  clock.Clock
}

func NewRedisVerifyAttemptGuard(client redis.UniversalClient, prefix string, policy VerifyAttemptPolicy, clk clock.Clock) *RedisVerifyAttemptGuard {
	if prefix == "" {
		prefix = "verify_guard"
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RedisVerifyAttemptGuard{
		client: client,
		prefix: prefix,
		policy: normalizeVerifyAttemptPolicy(policy),
		clock:  clk,
	}
}

func (g *RedisVerifyAttemptGuard) Check(ctx context.Context, purpose domain.CredentialPurpose, identity string) (time.Duration, error) {
	key := g.stateKey(purpose, identity)
	values, err := g.client.HMGet(ctx, key, "last_failure_ms", "cooldown_until_ms").Result()
	if err != nil {
		return 0, err
	}
	if len(values) != 2 || values[0] == nil || values[1] == nil {
		return 0, nil
	}
	lastFailureMS, err := parseRedisInt64(values[0])
	if err != nil {
		return 0, err
	}
	cooldownUntilMS, err := parseRedisInt64(values[1])
	if err != nil {
		return 0, err
	}
	nowMS := g.clock.Now().UnixMilli()
	if nowMS-lastFailureMS > g.policy.ResetWindow.Milliseconds() || cooldownUntilMS <= nowMS {
		return 0, nil
	}
	return time.Duration(cooldownUntilMS-nowMS) * time.Millisecond, nil
}

func (g *RedisVerifyAttemptGuard) RegisterFailure(ctx context.Context, purpose domain.CredentialPurpose, identity string) (time.Duration, error) {
	result, err := redisVerifyAttemptBumpScript.Run(
		ctx,
		g.client,
		[]string{g.stateKey(purpose, identity)},
		g.clock.Now().UnixMilli(),
		g.policy.BaseDelay.Milliseconds(),
		g.policy.Multiplier,
		g.policy.MaxDelay.Milliseconds(),
		g.policy.ResetWindow.Milliseconds(),
		g.policy.FreeAttempts,
	).Result()
	if err != nil {
		return 0, err
	}
	delayMS, err := parseRedisInt64(result)
	if err != nil {
		return 0, err
	}
	return time.Duration(max(delayMS, 0)) * time.Millisecond, nil
}

func (g *RedisVerifyAttemptGuard) Reset(ctx context.Context, purpose domain.CredentialPurpose, identity string) error {
	return g.client.Del(ctx, g.stateKey(purpose, identity)).Err()
}

// Identities are hashed so raw emails never appear in Redis keys.
func (g *RedisVerifyAttemptGuard) stateKey(purpose domain.CredentialPurpose, identity string) string {
	return fmt.Sprintf("%s:%s:%s", g.prefix, purpose, security.HashSecret(normalizeGuardIdentity(identity)))
}

func parseRedisInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
