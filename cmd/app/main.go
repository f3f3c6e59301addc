package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"mockinterview-backend/internal/config"
	"mockinterview-backend/internal/controller"
	"mockinterview-backend/internal/db"
	"mockinterview-backend/internal/llm"
	"mockinterview-backend/internal/questions"
	"mockinterview-backend/internal/repository"
	"mockinterview-backend/internal/service"
	"mockinterview-backend/internal/storage"
	"mockinterview-backend/pkg/middleware"
	"mockinterview-backend/utilities"
)

func main() {
	configPath := flag.String("config", "config.xml", "path to the XML configuration")
	flag.Parse()

	printStartUpBanner()

	// Load XML configuration from file.
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := utilities.SetupLogging(utilities.LogOptions{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Debug:      cfg.Logging.Debug,
	}); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer utilities.CloseLogs()

	ctx := context.Background()

	repos, err := openRepositories(cfg)
	if err != nil {
		utilities.Error("%v", err)
		os.Exit(1)
	}

	store, err := storage.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		utilities.Error("failed to open object store: %v", err)
		os.Exit(1)
	}

	backend, err := llm.NewBackend(ctx, cfg.Generation)
	if err != nil {
		utilities.Error("failed to create %s backend, using stub: %v", cfg.Generation.Provider, err)
		backend = llm.NewStubBackend()
	}

	bank, err := loadQuestionBank(cfg.Generation.QuestionBank)
	if err != nil {
		utilities.Error("failed to load question bank: %v", err)
		os.Exit(1)
	}
	utilities.Info("Question bank loaded with role-specific sets for %v", bank.RoleNames())

	guard, closeGuard := newStepGuard(ctx, cfg)
	defer closeGuard()

	// Create services.
	events := utilities.NewEventBus()
	capture := service.NewCaptureService(repos.Interviews, repos.Responses, store)
	synth := service.NewFeedbackService(backend,
		time.Duration(cfg.Generation.TimeoutSeconds)*time.Second,
		cfg.Generation.RequestsPerSecond)
	interviewService := service.NewInterviewService(repos, questions.NewGenerator(bank), capture, synth, guard, events, cfg.Session.DefaultQuestionCount)
	resultsService := service.NewResultsService(repos, store)
	service.InitReportEventListeners(events, resultsService)

	// Initialize Gin router.
	if !cfg.Logging.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.MaxMultipartMemory = controller.MaxMediaBytes

	// CORS configuration.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	deps := controller.Dependencies{
		Interviews: interviewService,
		Results:    resultsService,
		Tokens:     utilities.NewSessionToken(cfg.Session.TokenSecret, time.Duration(cfg.Session.TokenExpiryHours)*time.Hour),
		PageSize:   cfg.Pagination.PageSize,
	}
	if local, ok := store.(*storage.LocalStore); ok {
		deps.StaticDir = local.Dir()
	}
	controller.RegisterRoutes(r, deps)

	// Start server on the host and port specified in the XML config.
	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		utilities.Info("Listening on %s (db=%s, storage=%s, generation=%s)",
			addr, cfg.DB.Driver, cfg.Storage.Driver, cfg.Generation.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utilities.Error("server stopped: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utilities.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utilities.Error("graceful shutdown failed: %v", err)
	}
	// Let pending report uploads finish.
	events.Wait()
}

func openRepositories(cfg *config.APIConfig) (service.Repositories, error) {
	if cfg.DB.Driver == "memory" {
		utilities.Warn("Using in-memory storage; data is lost on restart")
		return service.NewMemoryRepositories(repository.NewMemoryStore()), nil
	}

	// Initialize DB using the loaded config.
	database, err := db.InitDBFromConfig(cfg)
	if err != nil {
		return service.Repositories{}, err
	}
	return service.Repositories{
		Interviews: repository.NewInterviewRepository(database),
		Responses:  repository.NewResponseRepository(database),
		Feedback:   repository.NewFeedbackRepository(database),
	}, nil
}

func loadQuestionBank(path string) (*questions.Bank, error) {
	if path == "" {
		return questions.DefaultBank()
	}
	return questions.LoadBank(path)
}

func newStepGuard(ctx context.Context, cfg *config.APIConfig) (service.StepGuard, func()) {
	if !cfg.Redis.Enabled {
		return service.NewLocalStepGuard(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		utilities.Warn("Redis unavailable (%v); falling back to in-process step guard", err)
		client.Close()
		return service.NewLocalStepGuard(), func() {}
	}
	ttl := time.Duration(cfg.Session.StepLockTTLSeconds) * time.Second
	return service.NewRedisStepGuard(client, ttl), func() { client.Close() }
}

func printStartUpBanner() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	myFigure := figure.NewFigure("MOCK INTERVIEW", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("MOCK INTERVIEW API (v%s)\n\n", "1.0.0")
}
