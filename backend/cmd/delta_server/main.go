package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"deltaServer/backend/config"
	"deltaServer/backend/internal/cache"
	"deltaServer/backend/internal/collab"
	"deltaServer/backend/internal/httpapi/handlers"
)

var (
	buildVersion = "dev"
	buildCommit  = "local"
	buildTime    = ""
)

func initConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// initDiffCache 在 Redis 不可用时返回 nil，服务照常启动，只是不缓存
func initDiffCache(cfg *config.Config) collab.ResultCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, diff cache disabled: %v", err)
		_ = rdb.Close()
		return nil
	}
	log.Printf("diff cache enabled: %v", cfg.Redis.Addrs)
	return cache.NewRedisDiffCache(rdb, cfg.Cache.TTL, cfg.Cache.Jitter)
}

func main() {
	if buildTime == "" {
		buildTime = time.Now().Format(time.RFC3339)
	}
	cfg := initConfig()

	svc := collab.NewAlgebraService(
		collab.NewSemaphoreControl(cfg.Diff.MaxConcurrent),
		initDiffCache(cfg),
		cfg.Diff.AcquireTimeout,
	)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.Cors.Enabled {
		r.Use(cors.New(cors.Config{
			AllowOriginFunc:  func(origin string) bool { return true },
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	handlers.NewDeltaHandler(svc).RegisterRoutes(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "version": buildVersion, "commit": buildCommit, "buildTime": buildTime})
	})

	log.Printf("delta server %s (%s) listening on :%d", buildVersion, buildCommit, cfg.Running.Port)
	if err := r.Run(":" + strconv.Itoa(cfg.Running.Port)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
