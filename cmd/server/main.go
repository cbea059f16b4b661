package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	config "slideflow/configs"
	"slideflow/internal/api/handlers"
	job "slideflow/internal/jobs"
	"slideflow/internal/pkg/aiclient"
	"slideflow/internal/queue"
	"slideflow/internal/repository"
	"slideflow/internal/scheduler"
	"slideflow/internal/service"
	"slideflow/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	telemetry.Register()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	automationRepo := repository.NewAutomationRepository(db)
	runRepo := repository.NewRunRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	r2Service := service.NewR2Service(*cfg)
	aiClient := aiclient.New(cfg.GeminiAPIKey, cfg.FalAPIKey, cfg.ElevenLabsAPIKey)
	generator := service.NewGenerator(aiClient, r2Service)

	automationService := service.NewAutomationService(automationRepo)
	queueManager := service.NewQueueManager(automationRepo, projectRepo)
	projectService := service.NewProjectService(projectRepo)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	tiktokService := service.NewTiktokService(*cfg, socialAccountRepo)
	instagramService := service.NewInstagramService(*cfg, socialAccountRepo)
	dispatcher := service.NewPostDispatcher(runRepo, tiktokService, instagramService)
	mailer := service.NewMailer(cfg.SMTP)

	platform := handlers.NewPlatformHandler(platformService, tiktokService, instagramService, cfg.FrontendURL)
	app.Get("/auth/:platform/callback", platform.Callback)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api := app.Group("/api")

	automation := handlers.NewAutomationHandler(automationService, queueManager, runRepo, dispatcher, generator)
	api.Get("/automations", automation.List)
	api.Post("/automations", automation.Create)
	api.Get("/automations/:id", automation.Get)
	api.Patch("/automations/:id", automation.Update)
	api.Delete("/automations/:id", automation.Remove)
	api.Post("/automations/:id/start", automation.Start)
	api.Post("/automations/:id/stop", automation.Stop)
	api.Post("/automations/:id/sample", automation.Sample)
	api.Post("/automations/:id/topics", automation.AddTopic)
	api.Delete("/automations/:id/topics/:index", automation.RemoveTopic)
	api.Get("/automations/:id/runs", automation.Runs)
	api.Get("/automations/:id/queue", automation.Queue)
	api.Post("/automations/:id/queue/skip", automation.SkipQueueItem)
	api.Post("/automations/:id/runs/:runId/post", automation.PostRun)

	project := handlers.NewProjectHandler(projectService, tiktokService, instagramService)
	api.Get("/projects", project.List)
	api.Post("/projects", project.Create)
	api.Get("/projects/:id", project.Get)
	api.Patch("/projects/:id", project.Update)
	api.Delete("/projects/:id", project.Remove)
	api.Post("/projects/:id/post-to-tiktok", project.PostToTiktok)
	api.Post("/projects/:id/post-to-instagram", project.PostToInstagram)

	api.Get("/:platform/auth", platform.Auth)
	api.Get("/:platform/status", platform.Status)
	api.Post("/:platform/disconnect", platform.Disconnect)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, tiktokService, instagramService)
	pruneJob := job.NewRunPruneJob(runRepo, cfg.RunRetentionDays)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@daily", pruneJob.Prune)
	c.Start()

	//queue
	queueW := queue.NewQueue(automationRepo, runRepo, projectRepo, queueManager, generator, dispatcher, mailer)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeAutomationRun, queueW.HandleRunTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	sched := scheduler.New(automationRepo, runRepo, &scheduler.AsynqEnqueuer{Client: client}, scheduler.SystemClock(), cfg.SchedulerTick)
	sched.Start()

	go func() {
		if err := app.Listen(cfg.ServerAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ServerAddr)

	gracefulShutdown(app, db, sched)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, sched *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	sched.Stop()
	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
