package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/curbshare/curbshare/handlers"
	"github.com/curbshare/curbshare/internal/comments"
	"github.com/curbshare/curbshare/internal/config"
	"github.com/curbshare/curbshare/internal/database"
	"github.com/curbshare/curbshare/internal/messages"
	"github.com/curbshare/curbshare/internal/oidc"
	"github.com/curbshare/curbshare/internal/spots"
	"github.com/curbshare/curbshare/internal/storage"
	"github.com/curbshare/curbshare/internal/tokens"
	"github.com/curbshare/curbshare/internal/users"
	"github.com/curbshare/curbshare/pkg/logger"
	"github.com/curbshare/curbshare/pkg/metrics"
	"github.com/curbshare/curbshare/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v google=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Google.ClientID != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Google ID-token verifier; the insecure variant is for integration runs only
	ctx := context.Background()
	var googleVerifier oidc.Verifier
	if cfg.Google.ClientID != "" {
		ver, err := oidc.NewGoogleVerifier(ctx, cfg.Google.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize Google verifier: %v", err)
		} else {
			googleVerifier = ver
		}
	}
	if googleVerifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warnf("enabling insecure ID-token verifier (integration mode)")
			googleVerifier = oidc.NewInsecureVerifier()
		}
	}

	// MinIO object storage for listing images (optional)
	var imageStore *storage.MinIOStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		imageStore, err = storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		} else {
			logger.Infof("connected to MinIO: %s bucket=%s", mcfg.Endpoint, mcfg.Bucket)
		}
	}

	// MongoDB with retry/backoff to tolerate startup races
	const maxAttempts = 5
	backoff := time.Second
	var client *mongo.Client
	var errConn error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, errConn = database.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if errConn != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	// repositories and services
	usersRepo := users.NewMongoRepository(db.Collection("users"))
	issuer := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	usersSvc := users.NewService(usersRepo, issuer)
	spotsRepo := spots.NewMongoRepository(db.Collection("parking_spots"))
	spotsSvc := spots.NewService(spotsRepo, usersRepo)
	commentsSvc := comments.NewService(comments.NewMongoRepository(db.Collection("comments")), spotsRepo, usersRepo)
	messagesSvc := messages.NewService(messages.NewMongoRepository(db.Collection("messages")), usersRepo)

	// health and readiness
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongodb"] = client.Ping(c.Request.Context(), nil) == nil
		if !deps["mongodb"] {
			ready = false
		}
		if cfg.Google.ClientID != "" {
			deps["oidc"] = googleVerifier != nil
			if !deps["oidc"] {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		name := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			name = "not_ready"
		}
		c.JSON(status, gin.H{"status": name, "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
	})

	// metrics
	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API routes
	authRequired := middleware.AuthRequired(issuer)
	authOptional := middleware.AuthOptional(issuer)
	root := r.Group("")
	handlers.NewAuthHandler(usersSvc, googleVerifier).Register(root, authRequired)
	handlers.NewSpotsHandler(spotsSvc, imageStore).Register(root, authRequired, authOptional)
	handlers.NewCommentsHandler(commentsSvc).Register(root, authRequired, authOptional)
	handlers.NewMessagesHandler(messagesSvc).Register(root, authRequired)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
