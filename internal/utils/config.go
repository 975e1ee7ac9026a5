package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultJWTSecret = "dev-secret"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	ServerPort  string        `env:"PORT" envDefault:"5001"`
	Environment string        `env:"APP_ENV" envDefault:"development"`
	JWTSecret   string        `env:"JWT_SECRET_KEY" envDefault:"dev-secret"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`
	StoreDriver string        `env:"STORE_DRIVER" envDefault:"mongo"`

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Logging  LoggingConfig
	Stream   StreamConfig `envPrefix:"STREAM_"`
}

type PostgresConfig struct {
	DSN               string        `env:"DSN"`
	Host              string        `env:"HOST" envDefault:"localhost"`
	Port              int           `env:"PORT" envDefault:"5432"`
	User              string        `env:"USER" envDefault:"postgres"`
	Password          string        `env:"PASSWORD" envDefault:"postgres"`
	Database          string        `env:"DB" envDefault:"lingolink"`
	MaxConns          int32         `env:"MAX_CONNS" envDefault:"8"`
	MinConns          int32         `env:"MIN_CONNS" envDefault:"1"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE" envDefault:"30m"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

type MongoConfig struct {
	URI            string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE" envDefault:"lingolink"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// RedisConfig is optional; an empty Addr disables the redis-backed revocation list.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type LoggingConfig struct {
	Level        string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding     string `env:"LOG_ENCODING" envDefault:"console"`
	Development  bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	EnableCaller bool   `env:"LOG_CALLER" envDefault:"false"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"lingolink"`
}

type StreamConfig struct {
	APIKey    string        `env:"API_KEY"`
	APISecret string        `env:"API_SECRET"`
	BaseURL   string        `env:"BASE_URL" envDefault:"https://chat.stream-io-api.com"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether presence sync credentials were supplied.
func (s StreamConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.APISecret) != ""
}

// LoadConfig reads an optional .env file and parses the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return finalize(&cfg)
}

// LoadConfigFrom parses an explicit environment, ignoring the process one.
func LoadConfigFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return finalize(&cfg)
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func finalize(cfg *Config) (*Config, error) {
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Encoding = strings.ToLower(cfg.Logging.Encoding)
	cfg.Stream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Stream.BaseURL), "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, "JWT_SECRET_KEY is empty")
	} else if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		problems = append(problems, "JWT_SECRET_KEY must be set in production")
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}

	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}
