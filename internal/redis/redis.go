package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// Client is the shared connection used by the redis session backend.
type Client struct {
	*goredis.Client
}

// New connects to addr, which is either host:port or a redis:// URL carrying
// credentials and a database number. A non-empty password overrides the one
// in the URL. The connection is verified with a PING before returning.
func New(ctx context.Context, addr, password string) (*Client, error) {
	opts, err := options(addr)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}

	return &Client{Client: client}, nil
}

func options(addr string) (*goredis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &goredis.Options{Addr: addr}, nil
}
