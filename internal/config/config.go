package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	AWSRegion       string `mapstructure:"AWS_REGION"`
	EmailFrom       string `mapstructure:"EMAIL_FROM"`
	DigestRecipient string `mapstructure:"DIGEST_RECIPIENT"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
}

// LoadConfig reads configuration from a .env file in path, with
// environment variables taking precedence.
func LoadConfig(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; everything can come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.LoadConfig: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config.LoadConfig: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config.LoadConfig: JWT_SECRET is required")
	}

	return cfg, nil
}
