package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bellapacxx/bingo-hall/config"
	"github.com/bellapacxx/bingo-hall/controllers"
	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/routes"
	"github.com/bellapacxx/bingo-hall/services"
	"github.com/bellapacxx/bingo-hall/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// loadPatterns reads the pattern catalog, falling back to the built-in one.
func loadPatterns(path string) (*game.PatternLibrary, error) {
	if path == "" {
		return game.DefaultLibrary(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return game.LoadPatterns(f)
}

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg config.Config, h routes.Handlers) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, h)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("[FATAL] %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	db, err := config.SetupDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("[FATAL] Failed to connect to DB: %v", err)
	}

	patterns, err := loadPatterns(cfg.PatternsFile)
	if err != nil {
		logger.Fatalf("[FATAL] Failed to load patterns: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publishers []services.Publisher
	if cfg.RedisURL != "" {
		pub, err := services.NewRedisPublisher(cfg.RedisURL, services.DefaultRecordChannel)
		if err != nil {
			logger.Fatalf("[FATAL] %v", err)
		}
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			logger.Warnf("[Init] redis not reachable, records will only be stored: %v", err)
		}
		publishers = append(publishers, pub)
	}
	// The recorder outlives the signal context: claims finishing during
	// shutdown still emit, so it is stopped only after the server is down.
	recorder := services.NewRecorder(services.NewRecordStore(db), publishers...)
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Run(recorderCtx)
	}()

	cards := game.NewCardStore(services.NewCardRepository(db))
	if cfg.CardsFile != "" {
		if _, err := services.ImportCards(ctx, cards, cfg.CardsOwner, cfg.CardsFile); err != nil {
			logger.Warnf("[Init] card import skipped: %v", err)
		}
	}

	hall := services.NewHall(services.HallOptions{
		Patterns:        patterns,
		Cards:           cards,
		Sink:            recorder,
		HouseCutPercent: cfg.HouseCutPercent,
		LockFalseClaims: cfg.LockFalseClaims,
		DrawInterval:    cfg.DrawInterval,
	})

	router := setupRouter(cfg, routes.Handlers{
		Hall:    hall,
		Tables:  controllers.NewTableHandler(hall, cards),
		Cards:   controllers.NewCardHandler(cards),
		Reports: controllers.NewReportHandler(services.NewReports(db, time.Local)),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Infof("🚀 Bingo hall server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[FATAL] Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	hall.Shutdown()

	stopRecorder()
	<-recorderDone
	if n := recorder.Pending(); n > 0 {
		logger.Errorf("[Recorder] %d finished games not recorded at exit", n)
	}
}
