// Command genmock seeds a SQLite database with deterministic synthetic
// accidents and weather events, for local runs of the analyze command
// without MongoDB or Neo4j.
//
// Usage:
//
//	go run ./cmd/genmock -db data/analysis.db -year 2020 -accidents 5000 -events 800
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/sqlite"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// Sampling area: a box around the mid-Atlantic states.
const (
	minLat, maxLat = 37.0, 42.0
	minLng, maxLng = -80.0, -74.0
)

var (
	eventTypes = []string{"Rain", "Snow", "Fog", "Cold", "Storm", "Precipitation"}
	severities = []string{"Light", "Moderate", "Heavy", "Severe"}
	conditions = []string{"Clear", "Clear", "Cloudy", "Light Rain", "Rain", "Snow", "Fog", "Overcast"}
)

type options struct {
	db        string
	year      int
	accidents int
	events    int
	seed      uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.db, "db", "", "SQLite database path")
	flag.IntVar(&opts.year, "year", 2020, "calendar year of the generated records")
	flag.IntVar(&opts.accidents, "accidents", 5000, "number of accidents")
	flag.IntVar(&opts.events, "events", 800, "number of weather events")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.Parse()

	if opts.db == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -db")
	}
	if opts.accidents < 0 || opts.events < 0 {
		return fmt.Errorf("-accidents and -events must not be negative")
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, opts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	accidents, events := generate(opts)
	if err := store.InsertEvents(ctx, events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	log.Printf("events: %d records", len(events))
	if err := store.InsertAccidents(ctx, accidents); err != nil {
		return fmt.Errorf("insert accidents: %w", err)
	}
	log.Printf("accidents: %d records", len(accidents))
	log.Printf("wrote %s", opts.db)

	printStats(events)
	return nil
}

// generate returns the same records for the same options.
func generate(opts options) ([]domain.Accident, []domain.WeatherEvent) {
	rng := rand.New(rand.NewPCG(opts.seed, uint64(opts.year)))
	start := time.Date(opts.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	span := time.Date(opts.year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(start)

	events := make([]domain.WeatherEvent, opts.events)
	for i := range events {
		at := start.Add(time.Duration(rng.Int64N(int64(span)))).Truncate(time.Second)
		events[i] = domain.WeatherEvent{
			ID:        "W-" + strconv.Itoa(i+1),
			Type:      eventTypes[rng.IntN(len(eventTypes))],
			Severity:  severities[rng.IntN(len(severities))],
			StartTime: domain.At(at),
			EndTime:   domain.At(at.Add(time.Duration(30+rng.IntN(720)) * time.Minute)),
			Location:  randomGeo(rng),
		}
	}

	accidents := make([]domain.Accident, opts.accidents)
	for i := range accidents {
		accidents[i] = domain.Accident{
			ID:        "A-" + strconv.Itoa(i+1),
			StartTime: domain.At(start.Add(time.Duration(rng.Int64N(int64(span)))).Truncate(time.Second)),
			Location:  randomGeo(rng),
			Attributes: map[string]any{
				domain.FieldWeatherCondition: conditions[rng.IntN(len(conditions))],
				domain.FieldTemperature:      round(rng.NormFloat64()*15 + 55),
				domain.FieldHumidity:         round(20 + rng.Float64()*80),
			},
		}
		// Most US-Accidents rows carry no precipitation reading.
		if rng.IntN(3) == 0 {
			accidents[i].Attributes[domain.FieldPrecipitation] = round(rng.ExpFloat64() * 0.1)
		}
	}
	return accidents, events
}

func randomGeo(rng *rand.Rand) *domain.Geo {
	return &domain.Geo{
		Lat: minLat + rng.Float64()*(maxLat-minLat),
		Lng: minLng + rng.Float64()*(maxLng-minLng),
	}
}

func round(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}

func printStats(events []domain.WeatherEvent) {
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println("\n--- Event Types ---")
	for _, t := range types {
		fmt.Printf("  %-14s %d\n", t, counts[t])
	}
}
