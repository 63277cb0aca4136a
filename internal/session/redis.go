package session

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "pos:session:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStore{client: client}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Create(ctx context.Context, id string, employeeID int64, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+id, strconv.FormatInt(employeeID, 10), ttl).Err()
}

func (r *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) Revoke(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}
