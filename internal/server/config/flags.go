package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfigFile           = "config"
	flagHTTPAddr             = "addr"
	flagDatabaseDSN          = "database-dsn"
	flagSecretKey            = "secret-key"
	flagFrontendURL          = "frontend-url"
	flagCurrency             = "currency"
	flagStripeSecretKey      = "stripe-secret-key"
	flagPaymentTimeout       = "payment-timeout"
	flagSMTPHost             = "smtp-host"
	flagSMTPPort             = "smtp-port"
	flagSMTPUsername         = "smtp-username"
	flagSMTPPassword         = "smtp-password"
	flagMailFrom             = "mail-from"
	flagRedisAddr            = "redis-addr"
	flagCleanupRetryInterval = "cleanup-retry-interval"
	flagCORSOrigins          = "cors-origins"
	flagCookieSecure         = "cookie-secure"
	flagLogLevel             = "log-level"
	flagLogFormat            = "log-format"
)

// RegisterFlags declares every server setting on fs.
//
// Supported flags (short forms where they existed before):
//
//	-c, --config string            path to a JSON config file
//	-a, --addr string              HTTP bind address (e.g., ":4444")
//	-d, --database-dsn string      PostgreSQL DSN
//	-s, --secret-key string        JWT HMAC secret key
//	    --payment-timeout duration upper bound for a single charge call
//	    --cleanup-retry-interval   how often failed cart cleanups are retried
//
// Defaults shown in --help come from LoadDefaults; only flags the user
// actually set override lower-precedence sources.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfigFile, "c", "", "path to JSON config file")
	fs.StringP(flagHTTPAddr, "a", d.HTTPAddr, "address and port to run server")
	fs.StringP(flagDatabaseDSN, "d", d.DatabaseDSN, "database DSN")
	fs.StringP(flagSecretKey, "s", d.SecretKey, "secret key")
	fs.String(flagFrontendURL, d.FrontendURL, "frontend base URL used in reset links")
	fs.String(flagCurrency, d.Currency, "ISO currency code for charges")
	fs.String(flagStripeSecretKey, d.StripeSecretKey, "Stripe secret key")
	fs.Duration(flagPaymentTimeout, d.PaymentTimeout, "payment gateway call timeout")
	fs.String(flagSMTPHost, d.SMTPHost, "SMTP host")
	fs.String(flagSMTPPort, d.SMTPPort, "SMTP port")
	fs.String(flagSMTPUsername, d.SMTPUsername, "SMTP username")
	fs.String(flagSMTPPassword, d.SMTPPassword, "SMTP password")
	fs.String(flagMailFrom, d.MailFrom, "sender address for outgoing mail")
	fs.String(flagRedisAddr, d.RedisAddr, "Redis address for the cleanup retry queue (empty = in memory)")
	fs.Duration(flagCleanupRetryInterval, d.CleanupRetryInterval, "cart cleanup retry interval")
	fs.StringSlice(flagCORSOrigins, d.CORSOrigins, "allowed CORS origins")
	fs.Bool(flagCookieSecure, d.CookieSecure, "mark the session cookie Secure")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagLogFormat, d.LogFormat, "log format (text, json)")
}

// applyFlags copies the flags that were explicitly set on fs into config.
func applyFlags(config *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		flagHTTPAddr:        &config.HTTPAddr,
		flagDatabaseDSN:     &config.DatabaseDSN,
		flagSecretKey:       &config.SecretKey,
		flagFrontendURL:     &config.FrontendURL,
		flagCurrency:        &config.Currency,
		flagStripeSecretKey: &config.StripeSecretKey,
		flagSMTPHost:        &config.SMTPHost,
		flagSMTPPort:        &config.SMTPPort,
		flagSMTPUsername:    &config.SMTPUsername,
		flagSMTPPassword:    &config.SMTPPassword,
		flagMailFrom:        &config.MailFrom,
		flagRedisAddr:       &config.RedisAddr,
		flagLogLevel:        &config.LogLevel,
		flagLogFormat:       &config.LogFormat,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(flagPaymentTimeout) {
		v, err := fs.GetDuration(flagPaymentTimeout)
		if err != nil {
			return err
		}
		config.PaymentTimeout = v
	}
	if fs.Changed(flagCleanupRetryInterval) {
		v, err := fs.GetDuration(flagCleanupRetryInterval)
		if err != nil {
			return err
		}
		config.CleanupRetryInterval = v
	}
	if fs.Changed(flagCORSOrigins) {
		v, err := fs.GetStringSlice(flagCORSOrigins)
		if err != nil {
			return err
		}
		config.CORSOrigins = v
	}
	if fs.Changed(flagCookieSecure) {
		v, err := fs.GetBool(flagCookieSecure)
		if err != nil {
			return err
		}
		config.CookieSecure = v
	}
	return nil
}
