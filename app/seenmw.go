package app

import (
	"time"

	"lablend/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen stamps last_seen_at at most once per throttle window,
// using a redis SetNX as the gate. Errors never block the request.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("userID")
		if !ok {
			c.Next()
			return
		}
		uid, _ := v.(string)
		if uid == "" {
			c.Next()
			return
		}

		key := "lab:lastseen:" + uid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchUserSeen(c, uid)
		}
		c.Next()
	}
}
