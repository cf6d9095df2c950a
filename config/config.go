package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"go-shop-api/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"database"`
	Redis   RedisConfig   `mapstructure:"redis"`
	CORS    CORSConfig    `mapstructure:"cors"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Log     LogConfig     `mapstructure:"log"`
	Dedup   DedupConfig   `mapstructure:"dedup"`
	Mutator MutatorConfig `mapstructure:"mutator"`
	Events  EventsConfig  `mapstructure:"events"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DBConfig holds database specific configuration
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN builds the postgres:// connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig holds the connection settings for Redis. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CORSConfig holds CORS specific configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DedupConfig tunes the duplicate-attach guard.
type DedupConfig struct {
	Window       time.Duration `mapstructure:"window"`
	CacheSize    int           `mapstructure:"cache_size"`
	UseRedisLock bool          `mapstructure:"use_redis_lock"`
}

// MutatorConfig tunes the retry loop of versioned writes.
type MutatorConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffStep time.Duration `mapstructure:"backoff_step"`
}

type EventsConfig struct {
	Channel string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "shop_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("dedup.window", 5*time.Second)
	v.SetDefault("dedup.cache_size", 4096)
	v.SetDefault("dedup.use_redis_lock", false)
	v.SetDefault("mutator.max_retries", 3)
	v.SetDefault("mutator.backoff_step", 100*time.Millisecond)
	v.SetDefault("events.channel", "stock-changes")
}

// Load configuration from .env, the optional config file and environment variables.
func Load() (*Config, error) {
	return load(viper.New(), ".env")
}

func load(v *viper.Viper, envFile string) (*Config, error) {
	log := logger.Get()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Error reading .env file")
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Info("Config file not found, using defaults and environment variables.")
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// API_DEDUP_WINDOW -> dedup.window
	v.SetEnvPrefix("API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infof("Configuration loaded: Server Port=%d, DB Host=%s, Redis=%q, Allowed Origins=%v",
		cfg.Server.Port, cfg.DB.Host, cfg.Redis.Addr, cfg.CORS.AllowedOrigins)
	return &cfg, nil
}

// applyEnvOverrides honours the unprefixed variables used by the container setup. They win over everything.
func applyEnvOverrides(cfg *Config) {
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.DB.Port = port
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.DB.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	// Handle CORS_ALLOWED_ORIGINS env var (comma-separated string -> slice)
	if originsStr := os.Getenv("CORS_ALLOWED_ORIGINS"); originsStr != "" {
		cfg.CORS.AllowedOrigins = strings.Split(originsStr, ",")
		for i, origin := range cfg.CORS.AllowedOrigins {
			cfg.CORS.AllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns %d exceeds max_conns %d", c.DB.MinConns, c.DB.MaxConns))
	}
	if c.Dedup.Window <= 0 {
		errs = append(errs, fmt.Errorf("dedup.window must be positive, got %s", c.Dedup.Window))
	}
	if c.Dedup.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("dedup.cache_size must be positive, got %d", c.Dedup.CacheSize))
	}
	if c.Dedup.UseRedisLock && c.Redis.Addr == "" {
		errs = append(errs, errors.New("dedup.use_redis_lock requires redis.addr"))
	}
	if c.Mutator.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("mutator.max_retries must not be negative, got %d", c.Mutator.MaxRetries))
	}
	if c.Mutator.BackoffStep < 0 {
		errs = append(errs, fmt.Errorf("mutator.backoff_step must not be negative, got %s", c.Mutator.BackoffStep))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
