package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"bookmate-backend/internal/amqp"
	"bookmate-backend/internal/config"
	"bookmate-backend/internal/cron"
	"bookmate-backend/internal/database"
	"bookmate-backend/internal/handlers"
	"bookmate-backend/internal/middleware"
	"bookmate-backend/internal/notify"
	"bookmate-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc := cfg.Location()

	// 2. Connect to PostgreSQL and apply pending migrations
	db := database.New(&cfg.DB)
	defer db.Close()

	if err := database.RunMigrations(cfg.DB.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 3. Initialize cover storage
	var fileStore storage.Store
	switch cfg.Upload.Backend {
	case "s3":
		fileStore, err = storage.NewS3Store(storage.S3Options{
			Endpoint:  cfg.Upload.S3Endpoint,
			Region:    cfg.Upload.S3Region,
			Bucket:    cfg.Upload.S3Bucket,
			AccessKey: cfg.Upload.S3AccessKey,
			SecretKey: cfg.Upload.S3SecretKey,
			PublicURL: cfg.Upload.S3PublicURL,
		})
	default:
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Select the reminder delivery channel
	var deliver notify.DeliverFunc
	switch cfg.NotifyChannel {
	case "amqp":
		queue, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP: %v", err)
		}
		defer queue.Close()
		deliver = queue.Deliver
	default:
		deliver = notify.NewStoreSink(db.GetPool(), loc)
	}

	// 5. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 6. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	bookHandler := handlers.NewBookHandler(db, loc)
	settingsHandler := handlers.NewSettingsHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db, loc)
	notificationHandler := handlers.NewNotificationHandler(db, loc, deliver, cfg.NotifyInterval)
	uploadHandler := handlers.NewUploadHandler(fileStore, cfg.Upload.Dir)

	// Start the background reminder sweep
	cron.StartNotifier(db, loc, deliver, cfg.NotifyInterval)

	// 7. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BookMate API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes — rate limited to slow down credential guessing
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Every(12*time.Second), 5))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Serve uploaded covers (local storage only — S3 redirects to CDN)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 8. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		// Current user profile & preferences
		r.Get("/api/auth/me", authHandler.GetMe)
		r.Get("/api/settings", settingsHandler.Get)
		r.Put("/api/settings", settingsHandler.Update)

		// Cover upload
		r.Post("/api/upload", uploadHandler.Upload)

		// Dashboard
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)

		// Books
		r.Get("/api/books", bookHandler.List)
		r.Post("/api/books", bookHandler.Create)
		r.Get("/api/books/history", bookHandler.History)
		r.Get("/api/books/stats", bookHandler.Stats)
		r.Route("/api/books/{id}", func(r chi.Router) {
			r.Get("/", bookHandler.GetByID)
			r.Put("/", bookHandler.Update)
			r.Delete("/", bookHandler.Delete)
			r.Patch("/return", bookHandler.Return)
			r.Post("/reissue", bookHandler.Reissue)
		})

		// Notifications
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)
		r.Post("/api/notifications/check", notificationHandler.Check)
	})

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
