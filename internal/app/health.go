package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger проверка готовности зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer HTTP-эндпоинты /healthz и /readyz для оркестратора контейнеров
type HealthServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewHealthRouter создаёт gin-роутер с проверками живости и готовности
func NewHealthRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "up"})
	})

	return r
}

// NewHealthServer создаёт сервер на addr
func NewHealthServer(addr string, db Pinger, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewHealthRouter(db),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start запускает сервер в фоне
func (h *HealthServer) Start() {
	go func() {
		h.logger.Info("Health server listening", zap.String("addr", h.server.Addr))
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Health server failed", zap.Error(err))
		}
	}()
}

// Shutdown останавливает сервер
func (h *HealthServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}
