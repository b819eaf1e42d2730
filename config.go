package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	GatewayURL                string        `mapstructure:"gateway_url"`
	AlertPath                 string        `mapstructure:"alert_path"`
	SessionDB                 string        `mapstructure:"session_db"`
	Username                  string        `mapstructure:"username"`
	Password                  string        `mapstructure:"password"`
	TotpSecretKey             string        `mapstructure:"totp_secret_key"`
	WhatsAppDB                string        `mapstructure:"whatsapp_db"`
	WhatsAppNotificationGroup string        `mapstructure:"whatsapp_notification_group"`
	RateLimit                 float64       `mapstructure:"rate_limit"`
	HTTPTimeout               time.Duration `mapstructure:"http_timeout"`
}

const defaultConfigFile = "config.json"

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("gateway_url", "http://localhost:8080")
	v.SetDefault("alert_path", "/alerte/detecte")
	v.SetDefault("session_db", "medilabo.db")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("totp_secret_key", "")
	v.SetDefault("whatsapp_db", "medilabo-whatsapp.db")
	v.SetDefault("whatsapp_notification_group", "")
	v.SetDefault("rate_limit", 5)
	v.SetDefault("http_timeout", 0)
}

// parseConfig reads the optional .env file, then config.json (or path), then
// MEDILABO_* environment variables. A missing config file is not an error:
// every key has a default.
func parseConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}

	if path == "" {
		path = os.Getenv("MEDILABO_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix("MEDILABO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		_, statErr := os.Stat(path)
		if explicit || !os.IsNotExist(statErr) {
			return Config{}, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
		}
		log.Debugf("no configuration file at '%s', using defaults", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	config.GatewayURL = strings.TrimRight(config.GatewayURL, "/")
	if !strings.HasPrefix(config.AlertPath, "/") {
		config.AlertPath = "/" + config.AlertPath
	}
	if config.RateLimit <= 0 {
		return Config{}, fmt.Errorf("rate_limit must be positive, got %v", config.RateLimit)
	}
	return config, nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway_url: %s\n", c.GatewayURL)
	fmt.Fprintf(&b, "alert_path: %s\n", c.AlertPath)
	fmt.Fprintf(&b, "session_db: %s\n", c.SessionDB)
	fmt.Fprintf(&b, "username: %s\n", c.Username)
	fmt.Fprintf(&b, "password: %s\n", maskSecret(c.Password))
	fmt.Fprintf(&b, "totp_secret_key: %s\n", maskSecret(c.TotpSecretKey))
	fmt.Fprintf(&b, "whatsapp_db: %s\n", c.WhatsAppDB)
	fmt.Fprintf(&b, "whatsapp_notification_group: %s\n", c.WhatsAppNotificationGroup)
	fmt.Fprintf(&b, "rate_limit: %v\n", c.RateLimit)
	fmt.Fprintf(&b, "http_timeout: %s\n", c.HTTPTimeout)
	return b.String()
}
