package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/carom/internal/api"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/database"
	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/migrations"
	"github.com/playmatatu/carom/internal/physics"
	"github.com/playmatatu/carom/internal/redis"
	"github.com/playmatatu/carom/internal/scores"
	"github.com/playmatatu/carom/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database (optional)
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	} else {
		log.Println("[DB] DATABASE_URL not set; scores are not persisted and operator login is disabled")
	}

	// Initialize Redis (optional)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set; events are delivered to local clients only")
	}

	store := scores.NewStore(db, rdb, time.Duration(cfg.StateSnapshotTTLMinutes)*time.Minute)

	// Events go through redis so every instance can serve spectators;
	// without it they go straight to this instance's hub.
	var sink game.EventSink = ws.LocalSink{Hub: ws.TableHub}
	if rdb != nil {
		sink = store
		ws.SetRedisClient(rdb)
		ws.StartTableEventSubscriber(ctx)
	}

	newWorld := func() game.World {
		w := physics.NewWorld(nil)
		w.SubSteps = cfg.PhysicsMaxSubSteps
		return w
	}
	manager := game.InitializeManager(ctx, cfg, newWorld, store, sink)

	// Stop tables nobody is watching or playing on
	game.StartIdleWorker(ctx, manager, cfg, func(id string) bool {
		return ws.TableHub.RoomSize(id) > 0
	})

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, db, store, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		log.Printf("Starting carom table server on port %s (tick %v)", port, cfg.TickInterval())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
