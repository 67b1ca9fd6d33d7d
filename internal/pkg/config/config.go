package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const DefaultAPIURL = "https://localhost:7097"

// Credential backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Client configures bookctl and anything else built on the client packages.
type Client struct {
	APIURL      string `env:"BOOKAPP_API_URL,            default=https://localhost:7097"`
	LogLevel    string `env:"LOG_LEVEL,                  default=warn"`
	InsecureTLS bool   `env:"BOOKAPP_INSECURE_TLS,       default=false"`

	Credentials CredentialConfig
	Redis       RedisConfig
}

type CredentialConfig struct {
	Backend string `env:"BOOKAPP_CREDENTIAL_BACKEND, default=file"`
	// File defaults to <user config dir>/bookapp/credentials.json.
	File      string `env:"BOOKAPP_CREDENTIAL_FILE"`
	KeyPrefix string `env:"BOOKAPP_CREDENTIAL_PREFIX,  default=bookapp:"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Server configures the development API server.
type Server struct {
	Port      string        `env:"PORT,      default=7097"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, default=dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	AdminUser     string `env:"BOOKAPI_ADMIN_USER,     default=admin"`
	AdminPassword string `env:"BOOKAPI_ADMIN_PASSWORD, default=admin123"`

	Mongo MongoConfig
}

type MongoConfig struct {
	// URI is optional; when empty the server keeps everything in memory.
	URI      string `env:"BOOKAPI_MONGO_URI"`
	Database string `env:"BOOKAPI_MONGO_DB, default=bookapp"`
}

// LoadClient reads client configuration from the environment.
func LoadClient(ctx context.Context) (*Client, error) {
	return LoadClientFrom(ctx, envconfig.OsLookuper())
}

// LoadClientFrom is LoadClient with an explicit lookuper, used by tests.
func LoadClientFrom(ctx context.Context, l envconfig.Lookuper) (*Client, error) {
	var cfg Client
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: load client configuration: %w", err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	switch cfg.Credentials.Backend {
	case BackendFile, BackendRedis:
	default:
		return nil, fmt.Errorf("config: unknown credential backend %q", cfg.Credentials.Backend)
	}
	if cfg.Credentials.Backend == BackendFile && cfg.Credentials.File == "" {
		path, err := defaultCredentialFile()
		if err != nil {
			return nil, err
		}
		cfg.Credentials.File = path
	}
	return &cfg, nil
}

// LoadServer reads dev server configuration from the environment.
func LoadServer(ctx context.Context) (*Server, error) {
	return LoadServerFrom(ctx, envconfig.OsLookuper())
}

func LoadServerFrom(ctx context.Context, l envconfig.Lookuper) (*Server, error) {
	var cfg Server
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: load server configuration: %w", err)
	}
	return &cfg, nil
}

func defaultCredentialFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "bookapp", "credentials.json"), nil
}
