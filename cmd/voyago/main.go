package main

import (
	"context"
	"time"

	bookinghandler "voyago/internal/bookings/handler"
	bookingrepo "voyago/internal/bookings/repository"
	bookingservice "voyago/internal/bookings/service"
	bookingvalidator "voyago/internal/bookings/validator"
	travelhandler "voyago/internal/traveloptions/handler"
	travelrepo "voyago/internal/traveloptions/repository"
	travelservice "voyago/internal/traveloptions/service"
	travelvalidator "voyago/internal/traveloptions/validator"
	"voyago/pkg/app"
	"voyago/pkg/config"
	"voyago/pkg/contracts"
	"voyago/pkg/kafka"
)

const ServiceName = "voyago"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting voyago service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	handlers, producer := initServices(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	serverApp := app.NewApplication(cfg, handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config) ([]contracts.Handler, *kafka.Producer) {
	travelOptionRepo := travelrepo.NewMongoTravelOptionRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	seatLockRepo := bookingrepo.NewSeatLockRepository(cfg)

	ensureIndexes(cfg, travelOptionRepo, bookingRepo, seatLockRepo)

	producer := initProducer(cfg)

	travelOptionService := travelservice.NewTravelOptionService(
		travelOptionRepo,
		travelvalidator.NewTravelOptionValidator(cfg.Log),
		cfg,
	)

	var publisher bookingservice.Publisher
	if producer != nil {
		publisher = producer
	}
	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		travelOptionRepo,
		seatLockRepo,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
		cfg.Log,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		travelhandler.NewTravelOptionHandler(travelOptionService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	}, producer
}

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(cfg *config.Config, repos ...indexEnsurer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to create indexes", "error", err)
		}
	}
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka publishing disabled")
		return nil
	}

	kafkaCfg, err := kafka.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, bookingservice.BookingsTopic, bookingservice.BookingsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized", "topic", bookingservice.BookingsTopic)
	return producer
}
