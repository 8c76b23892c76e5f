package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Mail      MailConfig      `mapstructure:"mail"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Stats     StatsConfig     `mapstructure:"stats"`

	// EnvFileLoaded reports whether a .env file was found and applied.
	EnvFileLoaded bool `mapstructure:"-"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings. URL wins over the
// individual DB_* fields when both are set.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres or memory
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	MaxOpen  int    `mapstructure:"max_open"`
}

// DSN returns the connection string for lib/pq.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// RedisConfig enables the Redis stats cache when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AMQPConfig enables the broker-backed dispatch queue when URL is set.
type AMQPConfig struct {
	URL string `mapstructure:"url"`
}

type MailConfig struct {
	Backend  string `mapstructure:"backend"` // smtp or stdout
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SchedulerConfig struct {
	Spec          string        `mapstructure:"spec"`
	Embedded      bool          `mapstructure:"embedded"`
	SelectTimeout time.Duration `mapstructure:"select_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout or file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

type StatsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "mailing")
	v.SetDefault("database.max_open", 10)

	v.SetDefault("redis.url", "")

	v.SetDefault("amqp.url", "")

	v.SetDefault("mail.backend", "stdout")
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@example.com")

	v.SetDefault("scheduler.spec", "@every 1m")
	v.SetDefault("scheduler.embedded", false)
	v.SetDefault("scheduler.select_timeout", 30*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "mailing-service")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "logs/mailing.log")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_files", 5)

	v.SetDefault("stats.ttl", 15*time.Minute)
}

// Load reads configuration from an optional config.yaml in configPath.
// Variables from a .env file are loaded first. Environment variables with
// prefix MAILING_ override file values, e.g. MAILING_DATABASE_URL overrides
// database.url. The legacy DB_USER, DB_PASSWORD, DB_HOST, DB_PORT and DB_NAME
// variables are honoured as well.
func Load(configPath string) (*Config, error) {
	envFileLoaded := godotenv.Load() == nil

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("MAILING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.name":     "DB_NAME",
		"mail.from":         "DEFAULT_FROM_EMAIL",
	} {
		if err := v.BindEnv(key, "MAILING_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.EnvFileLoaded = envFileLoaded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the binaries cannot start with.
func (c *Config) Validate() error {
	switch c.Mail.Backend {
	case "smtp", "stdout":
	default:
		return fmt.Errorf("config: unsupported mail backend %q", c.Mail.Backend)
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Mail.From == "" {
		return errors.New("config: mail.from is required")
	}
	if c.Scheduler.Spec == "" {
		return errors.New("config: scheduler.spec is required")
	}
	return nil
}
