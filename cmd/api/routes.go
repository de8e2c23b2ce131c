package main

import (
	"database/sql"
	"time"

	"estate-chatbot/internal/admin"
	"estate-chatbot/internal/auth"
	"estate-chatbot/internal/config"
	"estate-chatbot/internal/store"
	"estate-chatbot/internal/webhook"
	"estate-chatbot/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg       config.Config
	auth      *auth.Manager
	store     store.Store
	db        *sql.DB
	rdb       *redis.Client
	coalescer webhook.Submitter
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.PingPostgres(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := deps.rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Meta webhooks (public; the GET handshake is the only verification Meta
	// offers without app-secret payload signing).
	wh := webhook.Handler{
		VerifyToken: deps.cfg.Meta.VerifyToken,
		Submitter:   deps.coalescer,
		Dedup:       webhook.RedisDedup(deps.rdb),
	}
	wh.Register(r)

	// Operator API.
	admin.Handler{
		Auth:  deps.auth,
		Cfg:   deps.cfg.Auth,
		Store: deps.store,
	}.Register(r)
}
