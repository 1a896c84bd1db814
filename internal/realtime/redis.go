package realtime

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NotificationChannel is the pub/sub channel prefix for per-user pushes;
// the recipient's user id is appended.
const NotificationChannel = "notifications:"

func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}
