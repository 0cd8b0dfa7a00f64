package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Source names accepted by ACCIDENT_SOURCE and EVENT_SOURCE.
const (
	SourceMongoDB = "mongodb"
	SourceNeo4j   = "neo4j"
	SourceSQLite  = "sqlite"
)

// Report formats accepted by REPORT_FORMATS.
const (
	FormatConsole = "console"
	FormatPNG     = "png"
	FormatHTML    = "html"
	FormatCSV     = "csv"
	FormatKafka   = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	AccidentSource string
	EventSource    string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	// MongoTimeLayout is the layout of the Start_Time strings stored in the
	// accident collection, used to build range filters.
	MongoTimeLayout string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	SQLitePath   string
	StoreTimeout time.Duration

	// MaxDistanceKM is zero when unset; joins then require an explicit flag.
	MaxDistanceKM        float64
	IndexLinearThreshold int
	JoinWorkers          int
	HistogramBins        int

	ReportFormats   []string
	ReportOutputDir string

	KafkaBrokers     []string
	KafkaReportTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	storeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("STORE_TIMEOUT", "30s"))
	if err != nil || storeTimeout <= 0 {
		return nil, errors.New("invalid STORE_TIMEOUT")
	}

	maxDistance, err := parseMaxDistance()
	if err != nil {
		return nil, err
	}

	threshold, err := parseInt("INDEX_LINEAR_THRESHOLD", 256, 0)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("JOIN_WORKERS", 1, 1)
	if err != nil {
		return nil, err
	}
	bins, err := parseInt("HISTOGRAM_BINS", 10, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AccidentSource:  strings.ToLower(sharedcfg.EnvOrDefault("ACCIDENT_SOURCE", SourceMongoDB)),
		EventSource:     strings.ToLower(sharedcfg.EnvOrDefault("EVENT_SOURCE", SourceNeo4j)),
		MongoURI:        sharedcfg.EnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   sharedcfg.EnvOrDefault("MONGODB_DATABASE", "traffic"),
		MongoCollection: sharedcfg.EnvOrDefault("MONGODB_COLLECTION", "accidents"),
		MongoTimeLayout: sharedcfg.EnvOrDefault("MONGODB_TIME_LAYOUT", time.DateTime),
		Neo4jURI:        sharedcfg.EnvOrDefault("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:       sharedcfg.EnvOrDefault("NEO4J_USER", "neo4j"),
		Neo4jPassword:   os.Getenv("NEO4J_PASSWORD"),
		SQLitePath:      sharedcfg.EnvOrDefault("SQLITE_PATH", "data/analysis.db"),
		StoreTimeout:    storeTimeout,

		MaxDistanceKM:        maxDistance,
		IndexLinearThreshold: threshold,
		JoinWorkers:          workers,
		HistogramBins:        bins,

		ReportFormats:   ParseFormats(sharedcfg.EnvOrDefault("REPORT_FORMATS", FormatConsole)),
		ReportOutputDir: sharedcfg.EnvOrDefault("REPORT_OUTPUT_DIR", "reports"),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "accident-weather-reports"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AccidentSource {
	case SourceMongoDB, SourceSQLite:
	default:
		return fmt.Errorf("ACCIDENT_SOURCE must be %s or %s, got %q", SourceMongoDB, SourceSQLite, c.AccidentSource)
	}
	switch c.EventSource {
	case SourceNeo4j, SourceSQLite:
	default:
		return fmt.Errorf("EVENT_SOURCE must be %s or %s, got %q", SourceNeo4j, SourceSQLite, c.EventSource)
	}
	if err := ValidateFormats(c.ReportFormats); err != nil {
		return fmt.Errorf("REPORT_FORMATS: %w", err)
	}
	if c.MongoDatabase == "" || c.MongoCollection == "" {
		return errors.New("MONGODB_DATABASE and MONGODB_COLLECTION are required")
	}
	for _, f := range c.ReportFormats {
		if f == FormatKafka && len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka report format")
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, lowercasing entries and
// dropping blanks and duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ValidateFormats rejects unknown report formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case FormatConsole, FormatPNG, FormatHTML, FormatCSV, FormatKafka:
		default:
			return fmt.Errorf("unknown report format %q", f)
		}
	}
	return nil
}

func parseMaxDistance() (float64, error) {
	s := os.Getenv("MAX_DISTANCE_KM")
	if s == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
		return 0, fmt.Errorf("invalid MAX_DISTANCE_KM %q: must be a positive number", s)
	}
	return d, nil
}

func parseInt(name string, def, minimum int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s %q: must be an integer >= %d", name, s, minimum)
	}
	return n, nil
}
