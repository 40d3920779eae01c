package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

func redisAddr() string {
	for _, k := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// RedisConfigured reports whether any of REDIS_ADDR, REDIS_URI or REDIS_URL
// is set.
func RedisConfigured() bool { return redisAddr() != "" }

func InitRedis() error {
	opt, err := RedisOptions(redisAddr())
	if err != nil {
		return err
	}
	RedisClient = redis.NewClient(opt)

	_, err = RedisClient.Ping(context.Background()).Result()
	return err
}

// RedisOptions accepts either a redis:// URL or a bare host:port.
func RedisOptions(val string) (*redis.Options, error) {
	if val == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		return redis.ParseURL(val)
	}
	return &redis.Options{Addr: val}, nil
}
