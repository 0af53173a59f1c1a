package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
)

// Config holds every setting of the orchestrator and the archiver.
type Config struct {
	MongoURI     string `envconfig:"MONGODB_URI"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"Ubereats"`

	BatchSize         int     `envconfig:"BATCH_SIZE" default:"100"`
	MaxRetries        int     `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelaySeconds float64 `envconfig:"RETRY_DELAY_SECONDS" default:"2"`
	WatchEnabled      bool    `envconfig:"WATCH_ENABLED" default:"true"`
	ResumeTokenPath   string  `envconfig:"RESUME_TOKEN_PATH" default:".resume_token.json"`

	TRestoSeconds    float64 `envconfig:"T_RESTO_SECONDS" default:"60"`
	TDriverSeconds   float64 `envconfig:"T_DRIVER_SECONDS" default:"30"`
	TNoDriverSeconds float64 `envconfig:"T_NODRIVER_SECONDS" default:"20"`

	CandidatesK           int     `envconfig:"CANDIDATES_K" default:"5"`
	GeoRadiusMeters       float64 `envconfig:"GEO_RADIUS_METERS" default:"5000"`
	DriverRewardRate      float64 `envconfig:"DRIVER_REWARD_RATE" default:"0.15"`
	PreparationRefundRate float64 `envconfig:"PREPARATION_REFUND_RATE" default:"0.60"`

	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort         int           `envconfig:"HTTP_PORT" default:"8080"`
	RouterShards     int           `envconfig:"ROUTER_SHARDS" default:"64"`
	WorkerPoolSize   int           `envconfig:"WORKER_POOL_SIZE"`
	OperationTimeout time.Duration `envconfig:"OPERATION_TIMEOUT" default:"5s"`
	CursorBackend    string        `envconfig:"CURSOR_BACKEND" default:"store"`

	ArchiverTool    string `envconfig:"ARCHIVER_TOOL" default:"archive"`
	ArchiverVersion string `envconfig:"ARCHIVER_VERSION" default:"2.0.0"`

	Redis Redis `envconfig:"REDIS"`
	Kafka Kafka `envconfig:"KAFKA"`
}

// Redis configures the pub/sub notification sink and the redis cursor backend.
type Redis struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

// Kafka configures the notification producer and the cancellation consumer.
type Kafka struct {
	Brokers            []string `envconfig:"BROKERS"`
	NotificationsTopic string   `envconfig:"NOTIFICATIONS_TOPIC" default:"notifications"`
	CancellationsTopic string   `envconfig:"CANCELLATIONS_TOPIC" default:"cancellation_requests"`
	GroupID            string   `envconfig:"GROUP_ID" default:"delivery-orchestrator"`
}

// Enabled reports whether at least one broker is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Cursor backends.
const (
	CursorFile  = "file"
	CursorStore = "store"
	CursorRedis = "redis"
)

// Load reads configuration in order: .env (if present) -> environment -> flags in args.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	// subcommand flags of the archive CLI share args with the config flags
	fs.ParseErrorsWhitelist.UnknownFlags = true
	bindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = DefaultWorkerPoolSize()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.MongoURI, "mongodb-uri", cfg.MongoURI, "MongoDB connection string")
	fs.StringVar(&cfg.DatabaseName, "database", cfg.DatabaseName, "database name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.IntVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "ops HTTP port, 0 disables")
	fs.Float64Var(&cfg.TRestoSeconds, "t-resto", cfg.TRestoSeconds, "restaurant response deadline, seconds")
	fs.Float64Var(&cfg.TDriverSeconds, "t-driver", cfg.TDriverSeconds, "courier response deadline, seconds")
	fs.Float64Var(&cfg.TNoDriverSeconds, "t-nodriver", cfg.TNoDriverSeconds, "no-candidate timeout, seconds")
	fs.IntVar(&cfg.CandidatesK, "candidates", cfg.CandidatesK, "max courier candidates per order")
	fs.Float64Var(&cfg.GeoRadiusMeters, "geo-radius", cfg.GeoRadiusMeters, "geo search radius, meters")
	fs.IntVar(&cfg.WorkerPoolSize, "workers", cfg.WorkerPoolSize, "concurrent order tasks")
	fs.StringVar(&cfg.CursorBackend, "cursor-backend", cfg.CursorBackend, "file|store|redis")
	fs.StringVar(&cfg.ResumeTokenPath, "resume-token-path", cfg.ResumeTokenPath, "resume token file")
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.MongoURI) == "" {
		errs = append(errs, errors.New("mongodb_uri is required"))
	}
	if strings.TrimSpace(c.DatabaseName) == "" {
		errs = append(errs, errors.New("database_name is empty"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid batch_size: %d", c.BatchSize))
	}
	if c.MaxRetries < 0 || c.RetryDelaySeconds < 0 {
		errs = append(errs, errors.New("retry settings must be non-negative"))
	}
	if c.TRestoSeconds < 0 || c.TDriverSeconds < 0 || c.TNoDriverSeconds < 0 {
		errs = append(errs, errors.New("timeouts must be non-negative"))
	}
	if c.CandidatesK < 0 {
		errs = append(errs, fmt.Errorf("invalid candidates_k: %d", c.CandidatesK))
	}
	if c.GeoRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("invalid geo_radius_meters: %v", c.GeoRadiusMeters))
	}
	if !isRate(c.DriverRewardRate) || !isRate(c.PreparationRefundRate) {
		errs = append(errs, errors.New("rates must be within [0, 1]"))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.HTTPPort))
	}
	if c.RouterShards <= 0 {
		errs = append(errs, fmt.Errorf("invalid router_shards: %d", c.RouterShards))
	}
	switch c.CursorBackend {
	case CursorFile, CursorStore:
	case CursorRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("cursor backend redis needs REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cursor backend %q", c.CursorBackend))
	}
	return errors.Join(errs...)
}

func isRate(v float64) bool { return v >= 0 && v <= 1 }

// TResto is the restaurant response deadline.
func (c *Config) TResto() time.Duration { return seconds(c.TRestoSeconds) }

// TDriver is the courier response deadline.
func (c *Config) TDriver() time.Duration { return seconds(c.TDriverSeconds) }

// TNoDriver is the wait before cancelling an order nobody was offered to.
func (c *Config) TNoDriver() time.Duration { return seconds(c.TNoDriverSeconds) }

// RetryDelay is the base backoff interval for transient store errors.
func (c *Config) RetryDelay() time.Duration { return seconds(c.RetryDelaySeconds) }

// ArchivedBy is the tag written on every history record.
func (c *Config) ArchivedBy() string {
	return fmt.Sprintf("%s v%s", c.ArchiverTool, c.ArchiverVersion)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// DefaultWorkerPoolSize is CPU count x 4.
func DefaultWorkerPoolSize() int {
	return runtime.NumCPU() * 4
}
