package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/cache"
	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
	"workshop_tool_inventory/importer"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router   *gin.Engine
	DB       *gorm.DB
	RDB      *redis.Client // 未配置 REDIS_ADDR 时为 nil
	Repo     *db.Repo
	Bridge   *bridge.Bridge
	Importer *importer.Importer
	Config   config.Config
}

// New 连接数据库和（可选的）Redis，组装桥接器；模型服务连不上不算失败
func New(ctx context.Context, cfg config.Config) (*App, error) {
	// --- DB ---
	dbConn, err := db.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	repo := db.NewRepo(dbConn)

	// --- Redis（可选）---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			log.Printf("redis unavailable, running without translation cache: %v", err)
			_ = rdb.Close()
			rdb = nil
		}
	}

	// --- Query bridge ---
	var oracle bridge.Oracle
	if cfg.LLM.URL != "" {
		oracle = bridge.NewHTTPOracle(cfg.LLM, nil)
	}
	br := bridge.New(cfg.LLM, oracle, repo,
		bridge.WithDialect(dbConn.Dialector.Name()),
		bridge.WithCache(cache.NewTranslationCache(rdb, cfg.LLM.CacheTTL)),
	)
	br.Connect(ctx)

	if cfg.SeedEmployees {
		SeedEmployees(ctx, repo)
	}

	// --- Gin ---
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:   r,
		DB:       dbConn,
		RDB:      rdb,
		Repo:     repo,
		Bridge:   br,
		Importer: importer.New(repo, cfg),
		Config:   cfg,
	}, nil
}

func MustNew(ctx context.Context, cfg config.Config) *App {
	a, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	return a
}

func (a *App) Addr() string { return fmt.Sprintf(":%s", a.Config.Port) }

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
