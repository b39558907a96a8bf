package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every environment variable the server reads.
const envPrefix = "GOPHSHOP_"

// dotenvFile is loaded if present. Variables already set in the process
// environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays GOPHSHOP_* environment variables onto config.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	strs := map[string]*string{
		"HTTP_ADDR":         &config.HTTPAddr,
		"DATABASE_DSN":      &config.DatabaseDSN,
		"SECRET_KEY":        &config.SecretKey,
		"FRONTEND_URL":      &config.FrontendURL,
		"CURRENCY":          &config.Currency,
		"STRIPE_SECRET_KEY": &config.StripeSecretKey,
		"SMTP_HOST":         &config.SMTPHost,
		"SMTP_PORT":         &config.SMTPPort,
		"SMTP_USERNAME":     &config.SMTPUsername,
		"SMTP_PASSWORD":     &config.SMTPPassword,
		"MAIL_FROM":         &config.MailFrom,
		"REDIS_ADDR":        &config.RedisAddr,
		"LOG_LEVEL":         &config.LogLevel,
		"LOG_FORMAT":        &config.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	durs := map[string]*time.Duration{
		"PAYMENT_TIMEOUT":        &config.PaymentTimeout,
		"CLEANUP_RETRY_INTERVAL": &config.CleanupRetryInterval,
	}
	for key, dst := range durs {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.CORSOrigins = origins
	}
	if v, ok := os.LookupEnv(envPrefix + "COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCOOKIE_SECURE: %w", envPrefix, err)
		}
		config.CookieSecure = b
	}
	return nil
}
