package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Record sink backends.
const (
	SinkPostgres = "postgres"
	SinkMongo    = "mongo"
	SinkNone     = "none"
)

// Link discovery modes.
const (
	DiscoveryHTTP    = "http"
	DiscoveryBrowser = "browser"
)

// Value splitter modes.
const (
	SplitBatch = "batch"
	SplitRow   = "row"
)

// Config holds all application configuration. Values come from an optional
// YAML file (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	SourceURL      string `yaml:"source_url"`
	MetadataMarker string `yaml:"metadata_marker"`
	DiscoveryMode  string `yaml:"discovery_mode"`
	ChromeBin      string `yaml:"chrome_bin"`

	HTTPTimeoutSec int `yaml:"http_timeout_sec"`
	MaxRetries     int `yaml:"max_retries"`
	RateLimitMs    int `yaml:"rate_limit_ms"`

	JavaBin   string `yaml:"java_bin"`
	TabulaJar string `yaml:"tabula_jar"`

	SplitMode string `yaml:"split_mode"`

	StorageDir    string `yaml:"storage_dir"`
	LedgerFile    string `yaml:"ledger_file"`
	CSVPrefix     string `yaml:"csv_prefix"`
	CSVNameSuffix string `yaml:"csv_name_suffix"`
	LogPrefix     string `yaml:"log_prefix"`
	LogRetention  int    `yaml:"log_retention"`
	LogLevel      string `yaml:"log_level"`

	RecordSink string `yaml:"record_sink"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`

	Schedule string `yaml:"schedule"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		SourceURL:      "https://www.harti.gov.lk/index.php/en/market-information/data-food-commodities-bulletin",
		MetadataMarker: "(Wholesale Prices of Rice & Subsidiary Food Crops)",
		DiscoveryMode:  DiscoveryHTTP,

		HTTPTimeoutSec: 60,
		MaxRetries:     3,
		RateLimitMs:    1000,

		JavaBin:   "java",
		TabulaJar: "./tabula.jar",

		SplitMode: SplitBatch,

		StorageDir:    "./data",
		LedgerFile:    "processed_pdfs.txt",
		CSVPrefix:     "csv/",
		CSVNameSuffix: "page2",
		LogPrefix:     "logs/",
		LogRetention:  30,
		LogLevel:      "info",

		RecordSink: SinkNone,

		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "bulletin",
		PostgresPassword: "bulletin",
		PostgresDB:       "bulletin_db",
		PostgresSSLMode:  "disable",

		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "bulletin",
		MongoCollection: "food_prices",

		Schedule: "0 6 * * *",
	}
}

// Load reads the .env file, the optional YAML file and the environment, and
// returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.SourceURL = getEnv("SOURCE_URL", c.SourceURL)
	c.MetadataMarker = getEnv("METADATA_MARKER", c.MetadataMarker)
	c.DiscoveryMode = getEnv("DISCOVERY_MODE", c.DiscoveryMode)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)

	c.HTTPTimeoutSec = getEnvInt("HTTP_TIMEOUT_SEC", c.HTTPTimeoutSec)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)

	c.JavaBin = getEnv("JAVA_BIN", c.JavaBin)
	c.TabulaJar = getEnv("TABULA_JAR", c.TabulaJar)

	c.SplitMode = getEnv("SPLIT_MODE", c.SplitMode)

	c.StorageDir = getEnv("STORAGE_DIR", c.StorageDir)
	c.LedgerFile = getEnv("LEDGER_FILE", c.LedgerFile)
	c.CSVPrefix = getEnv("CSV_PREFIX", c.CSVPrefix)
	c.CSVNameSuffix = getEnv("CSV_NAME_SUFFIX", c.CSVNameSuffix)
	c.LogPrefix = getEnv("LOG_PREFIX", c.LogPrefix)
	c.LogRetention = getEnvInt("LOG_RETENTION", c.LogRetention)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.RecordSink = getEnv("RECORD_SINK", c.RecordSink)

	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.MongoCollection = getEnv("MONGO_COLLECTION", c.MongoCollection)

	c.Schedule = getEnv("SCHEDULE", c.Schedule)
}

// Validate rejects unknown enumerated values.
func (c *Config) Validate() error {
	switch c.RecordSink {
	case SinkPostgres, SinkMongo, SinkNone:
	default:
		return fmt.Errorf("config: unknown RECORD_SINK %q", c.RecordSink)
	}
	switch c.DiscoveryMode {
	case DiscoveryHTTP, DiscoveryBrowser:
	default:
		return fmt.Errorf("config: unknown DISCOVERY_MODE %q", c.DiscoveryMode)
	}
	switch c.SplitMode {
	case SplitBatch, SplitRow:
	default:
		return fmt.Errorf("config: unknown SPLIT_MODE %q", c.SplitMode)
	}
	if c.SourceURL == "" {
		return fmt.Errorf("config: SOURCE_URL is empty")
	}
	if c.MetadataMarker == "" {
		return fmt.Errorf("config: METADATA_MARKER is empty")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
