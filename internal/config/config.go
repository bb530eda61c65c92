package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	Storage    string `yaml:"storage"`
	ShortCode  `yaml:"short_code"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	LocalCache `yaml:"local_cache"`
	Tracing    `yaml:"tracing"`
}

type ShortCode struct {
	Length     int    `yaml:"length"`
	Generator  string `yaml:"generator"`
	MaxRetries int    `yaml:"max_retries"`
}

var defaultShortCode = ShortCode{
	Length:     7,
	Generator:  "nanoid",
	MaxRetries: 5,
}

type HTTPServer struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	ShutdownTimeout: 10 * time.Second,
	MaxHeaderBytes:  1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// TLSEnabled reports whether both certificate and key are configured.
func (s *HTTPServer) TLSEnabled() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

type Postgres struct {
	// URL, when set, takes precedence over the individual connection fields.
	URL             string        `yaml:"url"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	QueryTimeout:    3 * time.Second,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Redis configures the shared cache. An empty Addr disables it.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

var defaultRedis = Redis{
	TTL: time.Hour,
}

type LocalCache struct {
	Enabled  bool          `yaml:"enabled"`
	MaxItems int64         `yaml:"max_items"`
	TTL      time.Duration `yaml:"ttl"`
}

var defaultLocalCache = LocalCache{
	Enabled:  true,
	MaxItems: 10000,
	TTL:      5 * time.Minute,
}

// Tracing configures OTLP export. An empty Endpoint disables it.
type Tracing struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

var defaultTracing = Tracing{
	ServiceName: "linkshrink",
	SampleRatio: 1,
}

// Load reads the YAML file at path over the defaults and applies environment overrides.
// Variables from a .env file in the working directory are loaded first and never override
// variables already set. An empty path falls back to CONFIG_PATH; if that is empty too,
// only defaults and environment are used.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("ENV"); ok {
		cfg.Env = v
	}
	if v, ok := os.LookupEnv("BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := os.LookupEnv("STORAGE"); ok {
		cfg.Storage = v
	}
	if v, ok := os.LookupEnv("POSTGRES_DSN"); ok {
		cfg.Postgres.URL = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.HTTPServer.Port = port
	}

	return nil
}

func (cfg *Config) validate() error {
	switch cfg.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", cfg.Env)
	}

	switch cfg.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	// Redis outlives the process while the memory store does not, so cached codes would point nowhere.
	if cfg.Storage == StorageMemory && cfg.Redis.Addr != "" {
		return errors.New("redis cache requires postgres storage")
	}

	if cfg.BaseURL == "" {
		return errors.New("base url is required")
	}
	if cfg.ShortCode.Length <= 0 {
		return fmt.Errorf("short code length must be positive, got %d", cfg.ShortCode.Length)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.Storage = StoragePostgres
	cfg.ShortCode = defaultShortCode
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.LocalCache = defaultLocalCache
	cfg.Tracing = defaultTracing
}
