package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sispendik:"

// Redis keeps each report as JSON under sispendik:<key> with a TTL and indexes
// keys by tag in sispendik:tag:<tag> sets.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect returns nil when addr is empty or the server does not answer PING,
// callers fall back to Nop.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis %s tidak dapat dihubungi, cache laporan dinonaktifkan: %v", addr, err)
		_ = rdb.Close()
		return nil
	}
	log.Println("Terhubung ke Redis:", addr)
	return rdb
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	b, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "redis get")
	}
	return true, json.Unmarshal(b, dst)
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+key, b, r.ttl)
		for _, tag := range append(tags, TagAll) {
			pipe.SAdd(ctx, tagKey(tag), key)
			if r.ttl > 0 {
				pipe.Expire(ctx, tagKey(tag), r.ttl)
			}
		}
		return nil
	})
	return errors.Wrap(err, "redis set")
}

func (r *Redis) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := r.rdb.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return errors.Wrapf(err, "redis smembers %s", tag)
		}
		del := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			del = append(del, keyPrefix+k)
		}
		del = append(del, tagKey(tag))
		if err := r.rdb.Del(ctx, del...).Err(); err != nil {
			return errors.Wrapf(err, "redis del %s", tag)
		}
	}

	evt, _ := json.Marshal(InvalidationEvent{ID: uuid.NewString(), Tags: tags, At: time.Now()})
	return errors.Wrap(r.rdb.Publish(ctx, InvalidateChannel, evt).Err(), "redis publish")
}

func tagKey(tag string) string {
	return keyPrefix + "tag:" + tag
}
