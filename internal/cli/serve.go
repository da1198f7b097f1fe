package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/internal/config"
	"github.com/alekhino/spacegate/internal/notify"
	"github.com/alekhino/spacegate/internal/participation"
	"github.com/alekhino/spacegate/internal/server"
	"github.com/alekhino/spacegate/internal/space"
	"github.com/alekhino/spacegate/internal/storage/postgres"
	"github.com/alekhino/spacegate/internal/storage/s3"
	"github.com/alekhino/spacegate/internal/user"
	"github.com/alekhino/spacegate/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	// Initializing and validating config
	cm, err := config.NewConfigManager(configPath)
	if err != nil {
		fmt.Printf("Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	}))

	log.Info("config loaded",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HTTPServerParams.Port,
		"http_server_address", c.HTTPServerParams.Address,
		"database", c.MainDBParams.Name,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	pool, err := postgres.CreatePool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		log.Error("failed to create postgres pool",
			"error", err,
			"db", c.MainDBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	log.Info("database connection established", "db", c.MainDBParams.Name)

	// Object storage for space icons
	minioClient, err := s3.NewClient(
		c.S3Params.Endpoint,
		c.S3Params.AccessKeyID,
		c.S3Params.SecretAccessKey,
		c.S3Params.BucketName,
		c.S3Params.UseSSL,
	)
	if err != nil {
		log.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}

	// JWT service
	authService := auth.NewService(
		c.GeneralParams.SecretKey,
		time.Minute*15,
		time.Hour*24*7,
	)

	// Stores
	userStore := user.NewPostgresStore(pool)
	spaceStore := space.NewPostgresStore(pool)
	recordStore := participation.NewPostgresStore(pool)
	iconStore := space.NewIconStore(minioClient, c.S3Params.BucketName)

	// Lobby notifications
	notifyManager := notify.NewManager(log.Logger)
	defer notifyManager.Shutdown()

	// Admission core
	resolver := space.NewResolver(space.PlaintextMatcher{})
	ledger := participation.NewLedger(
		recordStore,
		spaceStore,
		notify.NewLobbyNotifier(notifyManager),
		log.Logger,
	)

	dbTimeout := time.Duration(c.MainDBParams.Timeout) * time.Second

	router := server.NewRouter(server.RouterConfig{
		UserHandler:          user.NewHandler(userStore, authService, log.Logger, dbTimeout),
		SpaceHandler:         space.NewHandler(spaceStore, iconStore, log.Logger, dbTimeout),
		ParticipationHandler: participation.NewHandler(ledger, spaceStore, resolver, log.Logger, dbTimeout),
		NotifyHandler:        notify.NewHandler(notifyManager, spaceStore, log.Logger, dbTimeout),
		AuthService:          authService,
	})

	httpServer := server.New(c.HTTPServerParams.GetAddress(), router, log.Logger)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}
}
