// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"portfolio/api/database"
	"portfolio/api/handlers"
	"portfolio/api/mailer"
	"portfolio/api/middleware"
	"portfolio/api/ratelimit"
	"portfolio/api/store"
)

const (
	visitorRateLimit = 10
	contactRateLimit = 3
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize the visitor store (backend picked by VISITOR_BACKEND) ---
	visitorStore, closeStore, err := store.NewVisitorStore()
	if err != nil {
		log.Fatalf("Failed to initialize visitor store: %v", err)
	}
	defer closeStore()

	// --- Initialize the rate limiter ---
	limiter, closeLimiter, err := newLimiter()
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer closeLimiter()

	// --- Initialize the contact mailer ---
	contactMailer := mailer.NewFromEnv()
	if !contactMailer.Enabled() {
		log.Println("SMTP not configured; contact endpoint will reject submissions.")
	}

	// --- Initialize Handlers ---
	visitorHandlers := handlers.NewVisitorHandlers(visitorStore)
	contactHandlers := handlers.NewContactHandlers(contactMailer)
	statsHandlers := handlers.NewStatsHandlers(visitorStore)
	authHandlers := handlers.NewAuthHandlers()

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		visitors := api.Group("/visitors")
		visitors.Use(middleware.RateLimit(limiter, ratelimit.Limit{
			Max:    visitorRateLimit,
			Window: ratelimit.DefaultWindow,
		}))
		{
			visitors.GET("", visitorHandlers.GetVisitors)
			visitors.POST("", visitorHandlers.TrackVisit)
		}

		api.POST("/contact", middleware.RateLimit(limiter, ratelimit.Limit{
			Max:    contactRateLimit,
			Window: ratelimit.DefaultWindow,
		}), contactHandlers.SendMessage)

		api.POST("/admin/login", authHandlers.Login)
		api.POST("/admin/logout", authHandlers.Logout)

		// Admin-only analytics reads over the visitor log.
		stats := api.Group("/stats")
		stats.Use(middleware.AuthRequired())
		{
			stats.GET("/top-paths", statsHandlers.GetTopPaths)
			stats.GET("/visitors-over-time", statsHandlers.GetVisitorsOverTime)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Portfolio API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Portfolio API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// newLimiter picks the rate-limit backend. "redis" shares one budget across
// replicas; the default in-memory limiter is per-process.
func newLimiter() (ratelimit.Limiter, func(), error) {
	if os.Getenv("RATE_LIMITER") == "redis" {
		client, err := database.NewRedisClient()
		if err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedisLimiter(client), func() { client.Close() }, nil
	}

	limiter := ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow)
	return limiter, limiter.Close, nil
}
