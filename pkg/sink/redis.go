package sink

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
)

// RedisOptions configures a Redis sink.
type RedisOptions struct {
	URL       string `toml:"url"`        // e.g. redis://localhost:6379/0
	Prefix    string `toml:"prefix"`     // key prefix, default "semiframes"
	BatchSize int    `toml:"batch_size"` // families per RPUSH, default 512

	Mode  string `toml:"-"` // "semitopologies" or "semiframes"
	RunID string `toml:"-"`
}

func (o *RedisOptions) setDefaults() {
	if o.Prefix == "" {
		o.Prefix = "semiframes"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 512
	}
}

// Redis appends rendered families to the list <prefix>:<mode>:n<n> and, on
// Close, records run metadata in the hash <list>:meta.
//
// Pushes are retried on network errors, so delivery is at-least-once.
type Redis struct {
	client  *redis.Client
	opts    RedisOptions
	n       int
	key     string
	pending []any
	count   int64
	started time.Time
	backoff Backoff
}

// NewRedis connects to Redis for the family list of size n.
func NewRedis(ctx context.Context, opts RedisOptions, n int) (*Redis, error) {
	opts.setDefaults()
	o, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeIO, err, "connect to redis at %s", o.Addr)
	}
	return &Redis{
		client:  client,
		opts:    opts,
		n:       n,
		key:     RedisKey(opts.Prefix, opts.Mode, n),
		started: time.Now(),
		backoff: DefaultBackoff,
	}, nil
}

// RedisKey returns the list key families of size n are pushed to.
func RedisKey(prefix, mode string, n int) string {
	return fmt.Sprintf("%s:%s:n%d", prefix, mode, n)
}

// Key returns the list this sink pushes to.
func (r *Redis) Key() string { return r.key }

// Write implements Sink.
func (r *Redis) Write(ctx context.Context, n int, f family.Family) error {
	r.pending = append(r.pending, f.Render(n))
	if len(r.pending) >= r.opts.BatchSize {
		return r.flush(ctx)
	}
	return nil
}

func (r *Redis) flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	err := r.backoff.Retry(ctx, func() error {
		return redisRetryable(r.client.RPush(ctx, r.key, r.pending...).Err())
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "push to %s", r.key)
	}
	r.count += int64(len(r.pending))
	r.pending = r.pending[:0]
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := r.flush(ctx)
	if err == nil {
		err = r.client.HSet(ctx, r.key+":meta", map[string]any{
			"run_id":      r.opts.RunID,
			"n":           r.n,
			"mode":        r.opts.Mode,
			"count":       r.count,
			"started_at":  r.started.UTC().Format(time.RFC3339),
			"finished_at": time.Now().UTC().Format(time.RFC3339),
		}).Err()
		if err != nil {
			err = errors.Wrap(errors.ErrCodeIO, err, "write %s:meta", r.key)
		}
	}
	return stderrors.Join(err, r.client.Close())
}

// redisRetryable marks network failures as retryable. Server replies such
// as WRONGTYPE are final.
func redisRetryable(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Retryable(err)
	}
	return err
}
