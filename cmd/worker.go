package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/cardroom/services/orchestrator/eventstore"
	"example.com/cardroom/services/orchestrator/messaging"
	"example.com/cardroom/services/orchestrator/models"
	"example.com/cardroom/services/orchestrator/projections"
	"example.com/cardroom/services/orchestrator/saga"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the projection worker",
	Run:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// runWorker starts a read-side only instance: it consumes event batches and
// keeps the Elasticsearch projections current, producing no commands.
func runWorker(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting worker")

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

	// Initialize Elasticsearch client
	esClient, err := projections.NewElasticsearchClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Elasticsearch")
	}
	if err := projections.EnsureIndices(esClient, cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure Elasticsearch indices")
	}

	// Register only the projector; the worker produces no commands
	router := saga.NewRouter(eventStore)
	router.Register(projections.NewHandHistoryProjector(esClient, cfg))

	msgProcessor := messaging.NewProcessor(router, nil, nil)

	// Initialize Azure Service Bus consumer
	azureClient, err := messaging.NewAzureClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
	}

	go func() {
		if err := azureClient.StartConsumers(cfg.AzureEventsQueueName, msgProcessor); err != nil {
			log.Fatal().Err(err).Msg("Failed to start events queue consumer")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Worker exited properly")
}
