package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	LegacyDBPath                  string        `mapstructure:"DB_PATH"`
	UploadDir                     string        `mapstructure:"UPLOAD_DIR"`
	UploadTimeout                 time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	MaxUploadBytes                int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	EligiblePincodeRanges         string        `mapstructure:"ELIGIBLE_PINCODE_RANGES"`
	CodeMaxAttempts               int           `mapstructure:"CODE_MAX_ATTEMPTS"`
	StrictVerification            bool          `mapstructure:"STRICT_VERIFICATION"`
	AdminUsername                 string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword                 string        `mapstructure:"ADMIN_PASSWORD"`
	AdminRequireToken             bool          `mapstructure:"ADMIN_REQUIRE_TOKEN"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	WhatsAppCountryCode           string        `mapstructure:"WHATSAPP_COUNTRY_CODE"`
	EnableCORS                    bool          `mapstructure:"ENABLE_CORS"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	LogFormat                     string        `mapstructure:"LOG_FORMAT"`
}

const DefaultPincodeRanges = "560001-560300,561000-561999,562000-562999"

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("UPLOAD_DIR", "")
	v.SetDefault("UPLOAD_TIMEOUT", "10s")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("ELIGIBLE_PINCODE_RANGES", DefaultPincodeRanges)
	v.SetDefault("CODE_MAX_ATTEMPTS", 5)
	v.SetDefault("STRICT_VERIFICATION", false)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_REQUIRE_TOKEN", false)
	v.SetDefault("WHATSAPP_COUNTRY_CODE", "91")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.BindEnv("DATABASE_PATH")
	v.BindEnv("DB_PATH")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.BindEnv("ENABLE_CORS")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDerived fills values that depend on other settings.
func (c *Config) applyDerived() {
	// DB_PATH is the name used by older deployments.
	if c.DatabasePath == "" {
		c.DatabasePath = c.LegacyDBPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "backpack.db"
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
		if strings.HasPrefix(filepath.ToSlash(c.DatabasePath), "/data/") {
			c.UploadDir = "/data/uploads"
		}
	}
	if c.CodeMaxAttempts <= 0 {
		c.CodeMaxAttempts = 1
	}
}

func (c *Config) Validate() error {
	if c.AdminRequireToken && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_REQUIRE_TOKEN is enabled")
	}
	if c.UploadTimeout < 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must not be negative")
	}
	return nil
}
