// app/seenmw.go
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RequestIDHeader = "X-Request-ID"

// RequestID 给每个请求一个 id，客户端带了就沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ThrottleAsk 按客户端 IP 限制每分钟的自然语言请求数；没有 Redis 时不限流
func ThrottleAsk(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || perMinute <= 0 {
			c.Next()
			return
		}
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ask:rate:%s:%d", c.ClientIP(), window)

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(c, key)
		pipe.Expire(c, key, time.Minute)
		if _, err := pipe.Exec(c); err != nil {
			c.Next() // Redis 出错时放行，不阻塞请求
			return
		}
		if incr.Val() > int64(perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, H{"error": "too many questions, try again in a minute"})
			return
		}
		c.Next()
	}
}
