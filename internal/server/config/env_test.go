package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Run("reads prefixed variables", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("GOPHSHOP_SECRET_KEY", "env-secret")
		t.Setenv("GOPHSHOP_PAYMENT_TIMEOUT", "3s")
		t.Setenv("GOPHSHOP_CORS_ORIGINS", "https://a.example, https://b.example ,")
		t.Setenv("GOPHSHOP_COOKIE_SECURE", "true")

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseEnv(cfg))

		assert.Equal(t, "env-secret", cfg.SecretKey)
		assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
		assert.True(t, cfg.CookieSecure)
		assert.Equal(t, ":4444", cfg.HTTPAddr)
	})

	t.Run("dotenv file fills unset variables", func(t *testing.T) {
		old := dotenvFile
		t.Cleanup(func() { dotenvFile = old })

		dotenvFile = filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(dotenvFile, []byte("GOPHSHOP_CURRENCY=JPY\n"), 0o600))
		t.Setenv("GOPHSHOP_CURRENCY", "")
		require.NoError(t, os.Unsetenv("GOPHSHOP_CURRENCY"))

		cfg := &Config{}
		require.NoError(t, parseEnv(cfg))
		assert.Equal(t, "JPY", cfg.Currency)
	})

	t.Run("bad duration", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("GOPHSHOP_CLEANUP_RETRY_INTERVAL", "often")
		require.Error(t, parseEnv(&Config{}))
	})

	t.Run("bad bool", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("GOPHSHOP_COOKIE_SECURE", "sometimes")
		require.Error(t, parseEnv(&Config{}))
	})
}
