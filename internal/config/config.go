package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Auth     AuthConfig     `env:",prefix=AUTH_"`
	Mailer   MailerConfig   `env:",prefix=MAILER_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=chatter"`
	Password string `env:"PASSWORD,default=chatter_password"`
	DBName   string `env:"DB,default=chatter_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// AuthConfig holds the dual-token settings. Access and refresh tokens are
// signed with distinct secrets and algorithms so a leaked secret compromises
// only one token class.
type AuthConfig struct {
	AccessSecret  string   `env:"ACCESS_SECRET,required"`
	RefreshSecret string   `env:"REFRESH_SECRET,required"`
	AccessExpiry  Duration `env:"ACCESS_EXPIRY,default=15m"`
	RefreshExpiry Duration `env:"REFRESH_EXPIRY,default=7d"`
}

type MailerConfig struct {
	Endpoint string `env:"ENDPOINT,default="`
	Token    string `env:"TOKEN,default="`
	Sender   string `env:"SENDER,default=no-reply@chatter.dev"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=13"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Auth.AccessSecret) < 32 {
		return nil, fmt.Errorf("AUTH_ACCESS_SECRET must be at least 32 characters long")
	}
	if len(config.Auth.RefreshSecret) < 32 {
		return nil, fmt.Errorf("AUTH_REFRESH_SECRET must be at least 32 characters long")
	}
	if config.Auth.AccessSecret == config.Auth.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if config.Auth.AccessExpiry.Duration >= config.Auth.RefreshExpiry.Duration {
		return nil, fmt.Errorf("AUTH_ACCESS_EXPIRY must be shorter than AUTH_REFRESH_EXPIRY")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
