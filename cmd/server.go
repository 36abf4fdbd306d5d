package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/cardroom/services/orchestrator/api"
	"example.com/cardroom/services/orchestrator/cache"
	"example.com/cardroom/services/orchestrator/eventstore"
	"example.com/cardroom/services/orchestrator/messaging"
	"example.com/cardroom/services/orchestrator/models"
	"example.com/cardroom/services/orchestrator/process"
	"example.com/cardroom/services/orchestrator/projections"
	"example.com/cardroom/services/orchestrator/saga"
	"example.com/cardroom/services/orchestrator/sagas"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the orchestrator server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Auto migrate tables
	if cfg.EnableMigrations {
		if err := db.AutoMigrate(&models.Event{}, &models.Stream{}); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	// Initialize event store
	eventStore := eventstore.NewGormEventStore(db)

	// Initialize the hand process manager and cross-domain sagas
	manager := process.NewManager(eventStore, cfg.ActionTimeout)

	router := saga.NewRouter(eventStore)
	router.Register(manager)
	router.Register(sagas.NewTableHandSync())
	router.Register(sagas.NewHandPlayerSettlement())

	// Initialize Elasticsearch projections when enabled
	if cfg.ElasticSearchEnabled {
		esClient, err := projections.NewElasticsearchClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Elasticsearch")
		}
		if err := projections.EnsureIndices(esClient, cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure Elasticsearch indices")
		}
		router.Register(projections.NewHandHistoryProjector(esClient, cfg))
	}

	// Initialize command publisher
	publisher, err := messaging.NewPublisher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize command publisher")
	}

	// Wire the action timers to the manager and publisher
	timers := process.NewActionTimers(func(handRoot string, position int) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		books, err := manager.HandleTimeout(ctx, handRoot, position)
		if err != nil {
			log.Error().Err(err).Str("handRoot", handRoot).Msg("Failed to handle action timeout")
			return
		}
		if len(books) == 0 {
			return
		}
		if err := publisher.Publish(ctx, books); err != nil {
			log.Error().Err(err).Str("handRoot", handRoot).Msg("Failed to publish timeout commands")
		}
	})
	manager.SetScheduler(timers)

	// Initialize the snapshot store and restore in-flight hands
	snapshots, err := cache.NewRedisSnapshotStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis snapshot store")
	}
	manager.SetSnapshotSink(snapshots)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	restored, err := snapshots.LoadAll(restoreCtx)
	cancelRestore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load hand snapshots")
	}
	if len(restored) > 0 {
		manager.Restore(restored)
	}

	// Initialize message processor
	msgProcessor := messaging.NewProcessor(router, eventStore, publisher)

	// Initialize Azure Service Bus consumer
	azureClient, err := messaging.NewAzureClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Start message consumers
	g.Go(func() error {
		log.Info().Str("queue", cfg.AzureEventsQueueName).Msg("Starting events queue consumer")
		return azureClient.StartConsumers(cfg.AzureEventsQueueName, msgProcessor)
	})

	// Start the completed-hand sweeper
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.SweepInterval),
			gocron.NewTask(func() {
				sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				manager.SweepCompleted(sweepCtx, cfg.HandRetention)
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	// Initialize server
	server := api.NewServer(cfg, manager, msgProcessor)

	// Start HTTP server
	g.Go(func() error {
		return server.Start()
	})

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := publisher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close command publisher")
	}

	if err := snapshots.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis snapshot store")
	}

	log.Info().Msg("Server exited properly")
}
