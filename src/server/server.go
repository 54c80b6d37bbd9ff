package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	app "photoapp/src/app"
	cfg "photoapp/src/configuration"
	"photoapp/src/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type (
	ObjectStore interface {
		BucketName() string
		CountObjects(ctx context.Context) (int, error)
		PresignedURL(ctx context.Context, key string, expires time.Duration) (*url.URL, error)
	}

	MetadataStore interface {
		Endpoint() string
		CountUsers(ctx context.Context) (int64, error)
		CountAssets(ctx context.Context) (int64, error)
		ListUsers(ctx context.Context) ([]app.User, error)
		ListAssets(ctx context.Context) ([]app.Asset, error)
		FindAsset(ctx context.Context, assetID int64) (app.AssetLocation, bool, error)
	}
)

// NewRouter registers the read-only photoapp routes. A nil limiter serves
// without rate limiting.
func NewRouter(objects ObjectStore, meta MetadataStore, limiter *RateLimiter, log *zap.SugaredLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), PrometheusMiddleware())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Encoding", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	pprof.Register(router)

	handler := NewHandler(meta, log)
	s3Handler := NewS3Handler(objects, meta, log)

	router.GET("/health", handler.GetHealth)
	router.GET("/stats", s3Handler.GetStats)
	router.GET("/users", handler.GetUsers)
	router.GET("/assets", handler.GetAssets)
	router.GET("/assets/:id", s3Handler.GetAsset)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{}) })
	return router
}

// RunServer serves until ctx is cancelled.
func RunServer(ctx context.Context, config cfg.HttpServerProperties, objects ObjectStore, meta MetadataStore, log *zap.SugaredLogger) error {
	gin.SetMode(gin.ReleaseMode)
	var limiter *RateLimiter
	if config.RateLimitPerMinute > 0 {
		limiter = NewRateLimiter(config.RateLimitPerMinute)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           NewRouter(objects, meta, limiter, log),
		ReadHeaderTimeout: config.ReadTimeout,
		ReadTimeout:       config.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting http server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Infow("stopping http server")
		return srv.Shutdown(shutdownCtx)
	}
}

// PrometheusMiddleware counts requests by route and status.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
