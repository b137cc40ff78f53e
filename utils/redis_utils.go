package utils

import (
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

// GetRedisClient builds a client against the redis instance specified by env.
// Callers should Ping before relying on it.
func GetRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
}
