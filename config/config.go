package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       string              `yaml:"storage"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	RabbitMQ      RabbitMQConfig      `yaml:"rabbitmq"`
	Mongo         MongoConfig         `yaml:"mongo"`
	Paystack      PaystackConfig      `yaml:"paystack"`
	Auth          AuthConfig          `yaml:"auth"`
	Booking       BookingConfig       `yaml:"booking"`
	Worker        WorkerConfig        `yaml:"worker"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	BookingTopic string   `yaml:"booking_topic"`
	RefundTopic  string   `yaml:"refund_topic"`
	GroupID      string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type PaystackConfig struct {
	SecretKey   string        `yaml:"secret_key"`
	BaseURL     string        `yaml:"base_url"`
	CallbackURL string        `yaml:"callback_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type BookingConfig struct {
	HoldTTL         time.Duration `yaml:"hold_ttl"`
	FlightsCacheTTL time.Duration `yaml:"flights_cache_ttl"`
	// Refund tiers as lead time before departure to percent.
	RefundTiers    []RefundTier `yaml:"refund_tiers"`
	RefundFallback int64        `yaml:"refund_fallback_percent"`
}

type RefundTier struct {
	Before  time.Duration `yaml:"before"`
	Percent int64         `yaml:"percent"`
}

type WorkerConfig struct {
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	SweepBatchSize int           `yaml:"sweep_batch_size"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
}

type ObservabilityConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// LoadConfig reads the YAML file, loads .env if present, applies environment
// overrides and defaults, then validates.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrap(err, "failed to read config")
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Storage, "STORAGE")
	setString(&c.HTTP.Address, "HTTP_ADDRESS")
	setString(&c.Database.Host, "DATABASE_HOST")
	setString(&c.Database.User, "DATABASE_USER")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.Name, "DATABASE_NAME")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Observability.LogLevel, "LOG_LEVEL")
	setString(&c.Observability.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Storage == "" {
		c.Storage = StoragePostgres
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 40 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingTopic == "" {
		c.Kafka.BookingTopic = "booking_events"
	}
	if c.Kafka.RefundTopic == "" {
		c.Kafka.RefundTopic = "refund_requests"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "airbooking-worker"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "booking.notifications"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "airbooking"
	}
	if c.Paystack.Timeout == 0 {
		c.Paystack.Timeout = 30 * time.Second
	}
	if c.Booking.HoldTTL == 0 {
		c.Booking.HoldTTL = 15 * time.Minute
	}
	if c.Booking.FlightsCacheTTL == 0 {
		c.Booking.FlightsCacheTTL = time.Minute
	}
	if c.Worker.SweepInterval == 0 {
		c.Worker.SweepInterval = time.Minute
	}
	if c.Worker.SweepBatchSize == 0 {
		c.Worker.SweepBatchSize = 100
	}
	if c.Worker.LockTTL == 0 {
		c.Worker.LockTTL = 2 * c.Worker.SweepInterval
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "airbooking-core"
	}
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("config: database host and name are required for postgres storage")
		}
	default:
		return errors.Newf("config: unknown storage %q", c.Storage)
	}
	if c.Booking.HoldTTL < 0 || c.Worker.SweepInterval < 0 {
		return errors.New("config: durations must not be negative")
	}
	for _, tier := range c.Booking.RefundTiers {
		if tier.Percent < 0 || tier.Percent > 100 {
			return errors.Newf("config: refund percent %d out of range", tier.Percent)
		}
	}
	if c.Booking.RefundFallback < 0 || c.Booking.RefundFallback > 100 {
		return errors.Newf("config: refund fallback percent %d out of range", c.Booking.RefundFallback)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
