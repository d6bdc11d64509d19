package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds configuration for both the chat relay and the users service.
type Config struct {
	Host                 string        `mapstructure:"host" yaml:"host"`
	Port                 int           `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout    time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel             string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat            string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes      int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxMessagesPerMinute int           `mapstructure:"max_messages_per_minute" yaml:"max_messages_per_minute"`

	UsersService UsersServiceConfig `mapstructure:"users_service" yaml:"users_service"`
	Chat         ChatConfig         `mapstructure:"chat" yaml:"chat"`
	TokenStore   TokenStoreConfig   `mapstructure:"token_store" yaml:"token_store"`
	Users        UsersConfig        `mapstructure:"users" yaml:"users"`
}

// UsersServiceConfig points the relay at the users service.
type UsersServiceConfig struct {
	HealthCheckEndpoint string        `mapstructure:"health_check_endpoint" yaml:"health_check_endpoint"`
	LoginEndpoint       string        `mapstructure:"login_endpoint" yaml:"login_endpoint"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// ChatConfig names the default room and the wire events.
type ChatConfig struct {
	Room              string `mapstructure:"room" yaml:"room"`
	MessageEvent      string `mapstructure:"message_event" yaml:"message_event"`
	NotificationEvent string `mapstructure:"notification_event" yaml:"notification_event"`
	ErrorEvent        string `mapstructure:"error_event" yaml:"error_event"`
}

// TokenStoreConfig selects where access tokens are kept.
type TokenStoreConfig struct {
	// Driver is one of memory, sqlite or redis.
	Driver    string        `mapstructure:"driver" yaml:"driver"`
	Path      string        `mapstructure:"path" yaml:"path"`
	RedisAddr string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// UsersConfig configures the users service process.
type UsersConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	DatabasePath string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer    string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// Token store drivers.
const (
	TokenStoreMemory = "memory"
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:                 "",
		Port:                 8080,
		ReadHeaderTimeout:    5 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		LogLevel:             "info",
		LogFormat:            "console",
		MaxMessageBytes:      64 * 1024,
		MaxMessagesPerMinute: 120,
		UsersService: UsersServiceConfig{
			HealthCheckEndpoint: "http://localhost:3000/healthz",
			LoginEndpoint:       "http://localhost:3000/users/login",
			RequestTimeout:      5 * time.Second,
		},
		Chat: ChatConfig{
			Room:              "chat",
			MessageEvent:      "message",
			NotificationEvent: "notifications",
			ErrorEvent:        "error",
		},
		TokenStore: TokenStoreConfig{
			Driver:    TokenStoreMemory,
			Path:      "tokens.db",
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Users: UsersConfig{
			Port:         3000,
			DatabasePath: "users.db",
			JWTSecret:    "change-me-in-production",
			JWTIssuer:    "textchat-users",
			TokenTTL:     24 * time.Hour,
		},
	}
}

// Addr is the chat relay listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UsersAddr is the users service listen address.
func (c Config) UsersAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Users.Port))
}
