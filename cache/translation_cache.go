// Package cache keeps natural-language → SQL translations in Redis so
// repeated questions skip the text-generation service.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type TranslationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTranslationCache 允许 rdb 为 nil，此时所有操作都是空操作
func NewTranslationCache(rdb *redis.Client, ttl time.Duration) *TranslationCache {
	return &TranslationCache{rdb: rdb, ttl: ttl}
}

type entry struct {
	SQL      string `json:"sql"`
	CachedAt int64  `json:"at"`
}

func key(k string) string {
	sum := sha256.Sum256([]byte(k))
	return "bridge:sql:" + hex.EncodeToString(sum[:])
}

func (c *TranslationCache) Get(ctx context.Context, k string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	b, err := c.rdb.Get(ctx, key(k)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("translation cache get: %v", err)
		}
		return "", false
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil || e.SQL == "" {
		return "", false
	}
	return e.SQL, true
}

// Set 写失败只记日志，缓存不影响查询本身
func (c *TranslationCache) Set(ctx context.Context, k, stmt string) {
	if c == nil || c.rdb == nil {
		return
	}
	b, _ := json.Marshal(entry{SQL: stmt, CachedAt: time.Now().Unix()})
	if err := c.rdb.Set(ctx, key(k), b, c.ttl).Err(); err != nil {
		log.Printf("translation cache set: %v", err)
	}
}

// Purge 清掉所有缓存的翻译（改了表结构之后用）
func (c *TranslationCache) Purge(ctx context.Context) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, "bridge:sql:*", 200).Result()
		if err != nil {
			return n, err
		}
		if len(keys) > 0 {
			pipe := c.rdb.TxPipeline()
			pipe.Del(ctx, keys...)
			if _, err := pipe.Exec(ctx); err != nil {
				return n, err
			}
			n += len(keys)
		}
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
