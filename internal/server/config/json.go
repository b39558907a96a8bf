package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophshop/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. Only keys present in the file override the running Config.
type JsonConfig struct {
	HTTPAddr             *string         `json:"http_addr"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SecretKey            *string         `json:"secret_key"`
	FrontendURL          *string         `json:"frontend_url"`
	Currency             *string         `json:"currency"`
	StripeSecretKey      *string         `json:"stripe_secret_key"`
	PaymentTimeout       *timex.Duration `json:"payment_timeout"`
	SMTPHost             *string         `json:"smtp_host"`
	SMTPPort             *string         `json:"smtp_port"`
	SMTPUsername         *string         `json:"smtp_username"`
	SMTPPassword         *string         `json:"smtp_password"`
	MailFrom             *string         `json:"mail_from"`
	RedisAddr            *string         `json:"redis_addr"`
	CleanupRetryInterval *timex.Duration `json:"cleanup_retry_interval"`
	CORSOrigins          []string        `json:"cors_origins"`
	CookieSecure         *bool           `json:"cookie_secure"`
	LogLevel             *string         `json:"log_level"`
	LogFormat            *string         `json:"log_format"`
}

// parseJson loads configuration values from the JSON file at path into the
// provided Config. An empty path means there is nothing to load.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.Currency, c.Currency)
	setString(&config.StripeSecretKey, c.StripeSecretKey)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.PaymentTimeout != nil {
		config.PaymentTimeout = c.PaymentTimeout.Duration
	}
	if c.CleanupRetryInterval != nil {
		config.CleanupRetryInterval = c.CleanupRetryInterval.Duration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
