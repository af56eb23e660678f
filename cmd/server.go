package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enrollment-platform/internal/api/router"
	"enrollment-platform/internal/config"
	"enrollment-platform/internal/infrastructure/database"
	"enrollment-platform/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	serverPort string
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Enrollment Platform HTTP server",
	Long: `Start the Enrollment Platform HTTP server with full selection functionality.
This includes:
- Selection submission endpoint with atomic whole-set commits
- Eligible offering catalog queries per student
- Current selection lookups
- Async post-commit processing with queue workers
- Redis caching for catalog performance`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&serverPort, "port", "p", "8080", "Port for the server to listen on")
}

func startServer() {
	cfg := config.Get()
	if serverPort != "8080" {
		cfg.Server.Port = serverPort
	}

	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.Username,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}

	db, err := database.NewConnection(dbConfig)
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Error("Failed to run database migrations: %v", err)
		os.Exit(1)
	}

	if err := database.HealthCheck(db); err != nil {
		logger.Error("Database health check failed: %v", err)
		os.Exit(1)
	}

	routerComponents, err := router.NewEnrollmentRouterWithQueue(db)
	if err != nil {
		logger.Error("Failed to build router: %v", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        routerComponents.Router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Starting Enrollment Platform Server on port %s", cfg.Server.Port)
		logger.Info("Available endpoints:")
		logger.Info("  POST /api/v1/selections - Submit a selection")
		logger.Info("  GET  /api/v1/students/{id}/offerings - Get eligible offerings")
		logger.Info("  GET  /api/v1/students/{id}/selection - Get current selection")
		logger.Info("  GET  /health - Health check")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down Enrollment Platform Server...")
	logger.Info("Stopping queue workers...")
	routerComponents.QueueService.StopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
