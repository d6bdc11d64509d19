package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "TEXTCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Variable names the chat service has always understood, bound next to the
// TEXTCHAT_ prefixed ones.
var legacyEnv = map[string]string{
	"port":                                "PORT",
	"log_level":                           "LOG_LEVEL",
	"users_service.health_check_endpoint": "USERS_SERVICE_HEALTH_CHECK_ENDPOINT",
	"users_service.login_endpoint":        "USERS_SERVICE_LOGIN_ENDPOINT",
}

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("TEXTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "TEXTCHAT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return cfg, "", fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can resolve nested values
// that are absent from the file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("max_messages_per_minute", cfg.MaxMessagesPerMinute)

	v.SetDefault("users_service.health_check_endpoint", cfg.UsersService.HealthCheckEndpoint)
	v.SetDefault("users_service.login_endpoint", cfg.UsersService.LoginEndpoint)
	v.SetDefault("users_service.request_timeout", cfg.UsersService.RequestTimeout)

	v.SetDefault("chat.room", cfg.Chat.Room)
	v.SetDefault("chat.message_event", cfg.Chat.MessageEvent)
	v.SetDefault("chat.notification_event", cfg.Chat.NotificationEvent)
	v.SetDefault("chat.error_event", cfg.Chat.ErrorEvent)

	v.SetDefault("token_store.driver", cfg.TokenStore.Driver)
	v.SetDefault("token_store.path", cfg.TokenStore.Path)
	v.SetDefault("token_store.redis_addr", cfg.TokenStore.RedisAddr)
	v.SetDefault("token_store.ttl", cfg.TokenStore.TTL)

	v.SetDefault("users.port", cfg.Users.Port)
	v.SetDefault("users.database_path", cfg.Users.DatabasePath)
	v.SetDefault("users.jwt_secret", cfg.Users.JWTSecret)
	v.SetDefault("users.jwt_issuer", cfg.Users.JWTIssuer)
	v.SetDefault("users.token_ttl", cfg.Users.TokenTTL)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
