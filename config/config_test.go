package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, AuthLocal, cfg.AuthProvider)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, "noop", cfg.EmailProvider)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRY", "1h")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")
	t.Setenv("SES_INSECURE_SKIP_VERIFY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.SESInsecureSkipVerify)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRY", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreDriver:    StoreMemory,
			AuthProvider:   AuthLocal,
			JWTSecret:      "secret",
			RequestTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mysql" }, wantErr: `unknown STORE_DRIVER "mysql"`},
		{name: "unknown provider", mutate: func(c *Config) { c.AuthProvider = "ldap" }, wantErr: `unknown AUTH_PROVIDER "ldap"`},
		{name: "local without secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "firestore without project", mutate: func(c *Config) { c.StoreDriver = StoreFirestore }, wantErr: "FIRESTORE_PROJECT_ID is required for the firestore store"},
		{name: "firebase without project", mutate: func(c *Config) { c.AuthProvider = AuthFirebase }, wantErr: "FIRESTORE_PROJECT_ID is required for the firebase identity provider"},
		{name: "firebase ignores secret", mutate: func(c *Config) {
			c.AuthProvider = AuthFirebase
			c.JWTSecret = ""
			c.FirestoreProjectID = "demo"
		}},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "REQUEST_TIMEOUT must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_Handlers(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "production", "warn").Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "production", "warn").Warn("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, "development", "").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
