package redis

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by Get for absent keys so callers can tell a
// miss from a transport failure.
var ErrKeyNotFound = errors.New("key does not exist")

type IRedisRepositories interface {
	Set(key string, data []byte, expiration time.Duration, ctx context.Context) error
	Get(key string, ctx context.Context) (string, error)
	Del(key string, ctx context.Context) error
	TTL(key string, ctx context.Context) (time.Duration, error)
	StartPipeline(ctx context.Context) *Pipeline
}

type RedisRepositories struct {
	Client *redis.Client
}

func NewRedisRepositories(client *redis.Client) *RedisRepositories {
	log.Println("🚀 Initialized Repository : Redis")
	return &RedisRepositories{
		Client: client,
	}
}

func (r *RedisRepositories) Set(key string, data []byte, expiration time.Duration, ctx context.Context) error {
	if err := r.Client.Set(ctx, key, string(data), expiration).Err(); err != nil {
		log.Printf("Error setting Redis key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *RedisRepositories) Get(key string, ctx context.Context) (string, error) {
	result, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	} else if err != nil {
		log.Printf("Error getting Redis key %s: %v", key, err)
		return "", err
	}
	return result, nil
}

func (r *RedisRepositories) Del(key string, ctx context.Context) error {
	if _, err := r.Client.Del(ctx, key).Result(); err != nil {
		log.Printf("Error deleting Redis key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *RedisRepositories) TTL(key string, ctx context.Context) (time.Duration, error) {
	duration, err := r.Client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return duration, nil
}

// Pipeline batches Redis commands into one round trip.
type Pipeline struct {
	pipe redis.Pipeliner
}

func (r *RedisRepositories) StartPipeline(ctx context.Context) *Pipeline {
	return &Pipeline{
		pipe: r.Client.Pipeline(),
	}
}

func (p *Pipeline) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	p.pipe.Set(ctx, key, value, expiration)
}

func (p *Pipeline) Del(ctx context.Context, keys ...string) {
	p.pipe.Del(ctx, keys...)
}

func (p *Pipeline) Execute(ctx context.Context) error {
	_, err := p.pipe.Exec(ctx)
	return err
}
