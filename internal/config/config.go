package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"API_PORT"`
	Env           string        `mapstructure:"ENV"`
	MongoURI      string        `mapstructure:"MONGO_URI"`
	MongoDatabase string        `mapstructure:"MONGO_DATABASE"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn  time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	BcryptCost    int           `mapstructure:"BCRYPT_COST"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	TextbeltKey   string        `mapstructure:"TEXTBELT_API_KEY"`
	TextbeltURL   string        `mapstructure:"TEXTBELT_URL"`

	// DotEnvErr is why .env could not be loaded, nil when it was.
	DotEnvErr error `mapstructure:"-"`
}

var keys = []string{
	"API_PORT", "ENV", "MONGO_URI", "MONGO_DATABASE", "JWT_SECRET", "JWT_EXPIRES_IN",
	"BCRYPT_COST", "CORS_ORIGINS", "LOG_LEVEL", "TEXTBELT_API_KEY", "TEXTBELT_URL",
}

// Load reads .env (if present) into the process environment, then builds the
// config from environment variables and defaults.
func Load() (*Config, error) {
	dotEnvErr := godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DATABASE", "medbook")
	v.SetDefault("JWT_EXPIRES_IN", "168h") // 7 days
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TEXTBELT_URL", "https://textbelt.com/text")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DotEnvErr = dotEnvErr

	// Entries from a comma separated env value keep their surrounding spaces.
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.JWTExpiresIn)
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}
