// Package kvstore is the boundary to the Redis key-value store: client
// construction, the key naming scheme, and JSON record helpers that renew
// expiry on every write.
package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Redis ships with 16 logical databases.
const maxDBIndex = 15

// Options selects the store to connect to. URL wins over Addr/DB.
type Options struct {
	URL  string
	Addr string
	DB   int
}

// NewClient builds a Redis client with a bounded retry policy: three retries
// per command, backing off from 50ms up to 2s. An out-of-range database index
// is replaced by 0 and reported through logger.
func NewClient(ctx context.Context, o Options, logger logging.Logger) (*redis.Client, error) {
	var opts *redis.Options

	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			logger.Warn(ctx, "redis URL could not be parsed, using address settings", "error", err)
		} else {
			opts = parsed
		}
	}

	if opts == nil {
		opts = &redis.Options{Addr: o.Addr, DB: o.DB}
	}

	if opts.DB < 0 || opts.DB > maxDBIndex {
		logger.Warn(ctx, "invalid redis db index, using 0", "db", opts.DB)
		opts.DB = 0
	}

	opts.MaxRetries = 3
	opts.MinRetryBackoff = 50 * time.Millisecond
	opts.MaxRetryBackoff = 2 * time.Second

	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	return redis.NewClient(opts), nil
}
