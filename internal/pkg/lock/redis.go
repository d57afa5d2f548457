package lock

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		prefix: "lock:",
	}
}

func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)
	fk := r.prefix + key
	token := uuid.NewString()

	if err := acquire(ctx, o.wait, func(ctx context.Context) (bool, error) {
		return r.client.SetNX(ctx, fk, token, o.ttl).Result()
	}); err != nil {
		return err
	}
	defer func() {
		// release even when ctx is already done
		if err := releaseScript.Run(context.WithoutCancel(ctx), r.client, []string{fk}, token).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to release lock", "key", fk, "error", err)
		}
	}()

	return fn(ctx)
}
