package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/airbooking-core/config"
	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisCache struct {
	client          *redis.Client
	flightsTTL      time.Duration
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), flightsTTL)
}

func NewRedisCacheWithClient(client *redis.Client, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          client,
		flightsTTL:      flightsTTL,
		availabilityTTL: flightsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetFlights returns nil without error on a miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	var flights []domain.Flight
	ok, err := c.getJSON(ctx, flightsKey(), &flights)
	if err != nil || !ok {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return c.setJSON(ctx, flightsKey(), flights, c.flightsTTL)
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

func (c *RedisCache) GetAvailability(ctx context.Context, flightID int64) ([]domain.FlightInventory, error) {
	var inv []domain.FlightInventory
	ok, err := c.getJSON(ctx, availabilityKey(flightID), &inv)
	if err != nil || !ok {
		return nil, err
	}
	return inv, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, flightID int64, inv []domain.FlightInventory) error {
	return c.setJSON(ctx, availabilityKey(flightID), inv, c.availabilityTTL)
}

// InvalidateAvailability drops the cached counters after any ledger change.
func (c *RedisCache) InvalidateAvailability(ctx context.Context, flightID int64) error {
	return c.client.Del(ctx, availabilityKey(flightID)).Err()
}

// Lock is a single-holder lease identified by a random token.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// TryLock takes the lease when nobody holds it. It returns nil without error
// when the lease is held elsewhere.
func (c *RedisCache) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "acquire lock %s", name)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{client: c.client, key: lockKey(name), token: token}, nil
}

// Extend renews the lease. It reports false when the lease was lost.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrapf(err, "extend lock %s", l.key)
	}
	return n == 1, nil
}

// Release deletes the lease only if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return errors.Wrapf(err, "release lock %s", l.key)
	}
	return nil
}

func (c *RedisCache) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func availabilityKey(flightID int64) string {
	return fmt.Sprintf("cache:flight:%d:availability", flightID)
}

func lockKey(name string) string {
	return "lock:" + name
}
