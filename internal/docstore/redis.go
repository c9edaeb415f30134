package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"
)

// Redis keeps documents under prefixed keys. Used for the client-local chat
// cache when it must survive process restarts.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Load(ctx context.Context, name string, dst any) (bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, wrap("load", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, wrap("decode", name, err)
	}
	return true, nil
}

func (r *Redis) Save(ctx context.Context, name string, src any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return wrap("encode", name, err)
	}
	if err := r.client.Set(ctx, r.prefix+name, raw, 0).Err(); err != nil {
		return wrap("save", name, err)
	}
	return nil
}
