package main

import (
	"context"
	"math/rand"
	"time"

	"voyago/internal/traveloptions/repository"
	"voyago/internal/traveloptions/service"
	"voyago/internal/traveloptions/validator"
	"voyago/pkg/config"
	"voyago/pkg/model"
)

const ServiceName = "voyago-seed"

// seedDays is how many consecutive departure dates each route gets.
const seedDays = 30

type route struct {
	mode        string
	operator    string
	origin      string
	destination string
	priceCents  int64
	totalSeats  int
}

var routes = []route{
	{model.ModeFlight, "Air India", "Delhi", "Mumbai", 850000, 180},
	{model.ModeFlight, "IndiGo", "Delhi", "Bangalore", 720000, 160},
	{model.ModeFlight, "SpiceJet", "Mumbai", "Delhi", 780000, 140},
	{model.ModeFlight, "Vistara", "Delhi", "Chennai", 920000, 150},
	{model.ModeFlight, "AirAsia India", "Bangalore", "Delhi", 680000, 120},
	{model.ModeFlight, "GoAir", "Mumbai", "Kolkata", 650000, 130},
	{model.ModeFlight, "Air India", "Delhi", "Kolkata", 750000, 170},
	{model.ModeFlight, "IndiGo", "Chennai", "Mumbai", 820000, 160},

	{model.ModeTrain, "Rajdhani Express", "Delhi", "Mumbai", 250000, 500},
	{model.ModeTrain, "Shatabdi Express", "Delhi", "Agra", 80000, 300},
	{model.ModeTrain, "Duronto Express", "Delhi", "Kolkata", 180000, 450},
	{model.ModeTrain, "Garib Rath Express", "Mumbai", "Delhi", 120000, 600},
	{model.ModeTrain, "Rajdhani Express", "Delhi", "Bangalore", 320000, 480},
	{model.ModeTrain, "Sampark Kranti Express", "Delhi", "Chennai", 280000, 520},
	{model.ModeTrain, "Duronto Express", "Mumbai", "Kolkata", 220000, 400},
	{model.ModeTrain, "Shatabdi Express", "Delhi", "Jaipur", 60000, 280},

	{model.ModeBus, "RedBus", "Delhi", "Agra", 40000, 45},
	{model.ModeBus, "Goibibo", "Delhi", "Jaipur", 35000, 40},
	{model.ModeBus, "MakeMyTrip", "Delhi", "Chandigarh", 50000, 35},
	{model.ModeBus, "RedBus", "Mumbai", "Pune", 30000, 50},
	{model.ModeBus, "Goibibo", "Bangalore", "Mysore", 25000, 42},
	{model.ModeBus, "MakeMyTrip", "Delhi", "Dehradun", 60000, 38},
	{model.ModeBus, "RedBus", "Chennai", "Bangalore", 45000, 44},
	{model.ModeBus, "Goibibo", "Kolkata", "Durgapur", 20000, 48},
}

// departure/duration windows per mode, in hours.
var schedules = map[string]struct {
	earliestHour, latestHour int
	minDuration, maxDuration int
}{
	model.ModeFlight: {6, 22, 1, 4},
	model.ModeTrain:  {5, 23, 2, 12},
	model.ModeBus:    {6, 21, 2, 8},
}

func main() {
	cfg := config.Load(ServiceName)

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	travelOptionRepo := repository.NewMongoTravelOptionRepository(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := travelOptionRepo.EnsureIndexes(ctx); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to create indexes", "error", err)
	}
	cancel()

	travelOptionService := service.NewTravelOptionService(
		travelOptionRepo,
		validator.NewTravelOptionValidator(cfg.Log),
		cfg,
	)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	today := time.Now().Truncate(24 * time.Hour)

	created := 0
	for _, rt := range routes {
		for day := 0; day < seedDays; day++ {
			option := buildOption(rng, rt, today.AddDate(0, 0, day))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := travelOptionService.Create(ctx, option)
			cancel()
			if err != nil {
				cfg.Log.Fatal("Failed to seed travel option",
					"operator", rt.operator,
					"route", option.Route(),
					"error", err,
				)
			}
			created++
		}
	}

	cfg.Log.Info("Seeding completed",
		"created", created,
		"routes", len(routes),
		"days", seedDays,
	)
}

func buildOption(rng *rand.Rand, rt route, day time.Time) *model.TravelOption {
	window := schedules[rt.mode]

	departureHour := window.earliestHour + rng.Intn(window.latestHour-window.earliestHour+1)
	departureMinute := 15 * rng.Intn(4)
	departure := day.Add(time.Duration(departureHour)*time.Hour + time.Duration(departureMinute)*time.Minute)

	duration := time.Duration(window.minDuration+rng.Intn(window.maxDuration-window.minDuration+1))*time.Hour +
		time.Duration(rng.Intn(60))*time.Minute

	return &model.TravelOption{
		Mode:           rt.mode,
		Operator:       rt.operator,
		Origin:         rt.origin,
		Destination:    rt.destination,
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(duration),
		PriceCents:     rt.priceCents,
		TotalSeats:     rt.totalSeats,
		AvailableSeats: rt.totalSeats,
	}
}
