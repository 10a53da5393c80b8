package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"anoa.com/linkbio/internal/config"
	"anoa.com/linkbio/internal/jobs"
	"anoa.com/linkbio/internal/middleware"
	"anoa.com/linkbio/internal/session"
	"anoa.com/linkbio/pkg/ratelimiter"
	"anoa.com/linkbio/pkg/response"
	"anoa.com/linkbio/pkg/storage"

	adminHttp "anoa.com/linkbio/internal/modules/admin/delivery/http"
	adminService "anoa.com/linkbio/internal/modules/admin/service"

	bioLinkHttp "anoa.com/linkbio/internal/modules/biolink/delivery/http"
	bioLinkRepo "anoa.com/linkbio/internal/modules/biolink/repository"
	bioLinkService "anoa.com/linkbio/internal/modules/biolink/service"

	clickHttp "anoa.com/linkbio/internal/modules/click/delivery/http"
	clickService "anoa.com/linkbio/internal/modules/click/service"

	linkHttp "anoa.com/linkbio/internal/modules/link/delivery/http"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	linkService "anoa.com/linkbio/internal/modules/link/service"

	profileHttp "anoa.com/linkbio/internal/modules/profile/delivery/http"
	profileService "anoa.com/linkbio/internal/modules/profile/service"

	redirectHttp "anoa.com/linkbio/internal/modules/redirect/delivery/http"
	redirectService "anoa.com/linkbio/internal/modules/redirect/service"

	searchService "anoa.com/linkbio/internal/modules/search/service"

	statHttp "anoa.com/linkbio/internal/modules/stat/delivery/http"
	statService "anoa.com/linkbio/internal/modules/stat/service"

	userHttp "anoa.com/linkbio/internal/modules/user/delivery/http"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	userService "anoa.com/linkbio/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
}

// NewServer wires every module. Redis, Meilisearch and Cloudinary are
// optional; the features backed by them degrade to their database or
// in-process fallbacks when absent.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := userRepo.NewUserRepository(db)
	linkRepo := linkRepo.NewLinkRepository(db)
	bioLinkRepo := bioLinkRepo.NewBioLinkRepository(db)

	var imageStorage storage.ImageStorage
	if s, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder); err != nil {
		log.Printf("cloudinary not configured, image uploads disabled: %v", err)
	} else {
		imageStorage = s
	}

	var linkIndex searchService.LinkIndex
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		linkIndex = searchService.NewMeiliSearchService(meiliClient)
	}

	throttleStore := ratelimiter.NewMemoryStore()
	if redisClient != nil {
		throttleStore = ratelimiter.NewRedisStore(redisClient)
	}
	throttle := ratelimiter.NewLoginThrottle(throttleStore, ratelimiter.Config{
		MaxAttempts:      cfg.LoginMaxAttempts,
		BlockDuration:    cfg.LoginBlockDuration,
		AttemptResetTime: cfg.LoginAttemptReset,
	})

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, userRepo)

	authSvc := userService.NewAuthService(userRepo, userService.NewBcryptChecker(), throttle, sessions)
	authHandler := userHttp.NewAuthHandler(authSvc, sessions)

	var indexCleaner adminService.LinkIndexCleaner
	if linkIndex != nil {
		indexCleaner = linkIndex
	}
	adminSvc := adminService.NewAdminService(userRepo, linkRepo, indexCleaner)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	profileSvc := profileService.NewProfileService(userRepo, imageStorage)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	linkSvc := linkService.NewLinkService(linkRepo, linkIndex, redisClient, cfg.RateLimitLink)
	linkHandler := linkHttp.NewLinkHandler(linkSvc)

	clickSvc := clickService.NewClickService(redisClient, linkRepo)
	eventsHandler := clickHttp.NewEventsHandler(redisClient, cfg.AllowedOrigins)

	resolver := redirectService.NewResolver(linkRepo, clickSvc)
	redirectHandler := redirectHttp.NewRedirectHandler(resolver)

	statSvc := statService.NewStatService(userRepo, linkRepo)
	statHandler := statHttp.NewStatHandler(statSvc)

	bioLinkSvc := bioLinkService.NewBioLinkService(bioLinkRepo, linkRepo, userRepo, cfg.PublicBaseURL)
	bioLinkHandler := bioLinkHttp.NewBioLinkHandler(bioLinkSvc)

	scheduler := jobs.NewScheduler()
	if err := scheduler.Register(jobs.NewClickSyncJob(clickSvc, cfg.ClickSyncSchedule)); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(sessions)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}
	api.GET("/resolve/:slug", redirectHandler.Resolve)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.POST("/jobs/:name/run", runJob(scheduler))
		}

		protected.GET("/profile", profileHandler.GetCurrentProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		// Link routes
		protected.GET("/links", linkHandler.ListLinks)
		protected.POST("/links", linkHandler.CreateLink)
		protected.GET("/links/export", linkHandler.ExportLinks)
		protected.GET("/links/events/ws", eventsHandler.HandleWebSocket)
		protected.GET("/links/:id", linkHandler.GetLink)
		protected.PUT("/links/:id", linkHandler.UpdateLink)
		protected.DELETE("/links/:id", linkHandler.DeleteLink)

		protected.GET("/stats/dashboard", statHandler.GetDashboard)
		protected.GET("/stats/clicks", statHandler.GetClicks)
		protected.GET("/stats/top-links", statHandler.GetTopLinks)

		// Bio link routes
		protected.GET("/bio-links", bioLinkHandler.ListBioLinks)
		protected.POST("/bio-links", bioLinkHandler.CreateBioLink)
		protected.GET("/bio-links/icons", bioLinkHandler.GetIcons)
		protected.GET("/bio-links/slug", bioLinkHandler.GetBioSlug)
		protected.PUT("/bio-links/slug", bioLinkHandler.SetBioSlug)
		protected.PUT("/bio-links/reorder", bioLinkHandler.ReorderBioLinks)
		protected.PUT("/bio-links/:id", bioLinkHandler.UpdateBioLink)
		protected.DELETE("/bio-links/:id", bioLinkHandler.DeleteBioLink)
	}

	registerPublicRoutes(router, redirectHandler, bioLinkHandler)

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}, nil
}

// registerPublicRoutes mounts the short-link surface at the root. Static
// paths take precedence over the /:slug catch.
func registerPublicRoutes(router *gin.Engine, redirectHandler *redirectHttp.RedirectHandler, bioLinkHandler *bioLinkHttp.BioLinkHandler) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "linkbio"})
	})
	router.GET("/404", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Página não encontrada"})
	})
	router.GET("/expired", func(c *gin.Context) {
		c.JSON(http.StatusGone, gin.H{"message": "Este link expirou"})
	})
	router.GET("/bio/:userId", bioLinkHandler.GetPublicPage)
	router.GET(redirectHttp.FunctionPrefix, redirectHandler.Redirect)
	router.GET(redirectHttp.FunctionPrefix+"/*slug", redirectHandler.Redirect)
	router.GET("/:slug", redirectHandler.Redirect)

	router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})
}

func runJob(scheduler *jobs.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		found, err := scheduler.RunByName(c.Request.Context(), name)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("job %q não encontrado", name)})
			return
		}
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "job executado", "job": name})
	}
}

// Run serves addr and the background jobs until ctx is cancelled, then
// drains in-flight requests and running jobs.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()
	defer s.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
