// Package server assembles the HTTP API from the domain packages.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"topglass/internal/config"
	"topglass/internal/domain/admin"
	"topglass/internal/domain/lead"
	"topglass/internal/domain/notification"
	"topglass/internal/domain/ratelimit"
	"topglass/internal/domain/upload"
	"topglass/internal/middleware"
	"topglass/internal/pkg/jwt"
	"topglass/internal/pkg/logger"
	"topglass/internal/pkg/response"
)

// Deps are the runtime resources the API is built from. Nil optional
// fields fall back to the database-backed or logging implementations.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger

	RateLimitStore ratelimit.Store
	Storage        upload.Storage
	Sender         notification.Sender
}

// Server holds the router and the services other binaries reach into.
type Server struct {
	Router *gin.Engine
	Hub    *admin.Hub
	Leads  *lead.Service
	Admins *admin.Service

	db  *gorm.DB
	log *zap.Logger
}

func New(d Deps) *Server {
	cfg := d.Config
	log := logger.OrNop(d.Log)

	store := d.RateLimitStore
	if store == nil {
		store = ratelimit.NewGormStore(d.DB)
	}
	storage := d.Storage
	if storage == nil {
		storage = upload.NewDiskStorage(cfg.UploadDir)
	}
	sender := d.Sender
	if sender == nil {
		sender = notification.NewLogSender(log)
	}

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	linkSigner := jwt.NewLinkSigner(cfg.SigningSecret, cfg.SignedURLTTL)

	hub := admin.NewHub(log)
	uploadRepo := upload.NewRepository(d.DB)

	leadService := lead.NewService(lead.NewRepository(d.DB),
		lead.WithPublisher(hub),
		lead.WithBlobRemover(upload.NewRemover(storage, uploadRepo)),
		lead.WithLogger(log),
	)
	limiter := ratelimit.NewService(store, log)
	uploadService := upload.NewService(storage, uploadRepo, leadService, cfg.MaxUploadBytes, log)
	notifyService := notification.NewService(sender, notification.NewDeliveryRepository(d.DB), notification.Config{
		From:     cfg.NotifyFrom,
		To:       cfg.NotifyTo,
		AdminURL: cfg.AdminURL,
	}, log)
	adminService := admin.NewService(admin.NewAdminRepository(d.DB), jwtService, log)

	leadHandler := lead.NewHandler(leadService)
	limitHandler := ratelimit.NewHandler(limiter)
	uploadHandler := upload.NewHandler(uploadService, limiter, linkSigner)
	notifyHandler := notification.NewHandler(notifyService)
	authHandler := admin.NewAuthHandler(adminService)
	feedHandler := admin.NewFeedHandler(hub, cfg.CORSAllowedOrigins, log)

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	s := &Server{
		Router: r,
		Hub:    hub,
		Leads:  leadService,
		Admins: adminService,
		db:     d.DB,
		log:    log,
	}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		lead.RegisterPublicRoutes(v1, leadHandler)
		ratelimit.RegisterRoutes(v1, limitHandler)
		upload.RegisterPublicRoutes(v1, uploadHandler)
		notification.RegisterPublicRoutes(v1, notifyHandler)

		adminGroup := v1.Group("/admin")
		auth := admin.AdminJWTAuth(jwtService)
		admin.RegisterAuthRoutes(adminGroup, authHandler, auth)

		protected := adminGroup.Group("")
		protected.Use(auth)
		{
			admin.RegisterFeedRoutes(protected, feedHandler)
			lead.RegisterAdminRoutes(protected, leadHandler)
			upload.RegisterAdminRoutes(protected, uploadHandler)
			notification.RegisterAdminRoutes(protected, notifyHandler)
		}
	}
	return s
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "database unavailable")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
