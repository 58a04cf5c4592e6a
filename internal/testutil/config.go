// internal/testutil/config.go
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/javajoker/b2b-marketplace/internal/config"
	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

const TestJWTSecret = "test-secret-key"

// NewTestConfig returns a development config with local storage under a
// temporary directory and the JWT secret installed.
func NewTestConfig(t testing.TB) *config.Config {
	t.Helper()
	require.NoError(t, i18n.Initialize("en"))
	utils.SetJWTSecret(TestJWTSecret)

	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: "0", Host: "127.0.0.1", ReadTimeout: 5, WriteTimeout: 5, IdleTimeout: 5},
		Database:    config.DatabaseConfig{Driver: "sqlite", MaxRetries: 3},
		JWT: config.JWTConfig{
			SecretKey:       TestJWTSecret,
			AccessTokenTTL:  24,
			RefreshTokenTTL: 168,
			ResetTokenTTL:   60,
		},
		Kafka:     config.KafkaConfig{Topic: "marketplace.orders"},
		AWS:       config.AWSConfig{LocalUploadDir: t.TempDir(), MaxUploadSizeMB: 1},
		Email:     config.EmailConfig{FromEmail: "noreply@example.com", FromName: "B2B Marketplace"},
		RateLimit: config.RateLimitConfig{Enabled: false, GeneralRPS: 100, GeneralBurst: 200, AuthRPS: 10, AuthBurst: 20},
		Logging:   config.LoggingConfig{Level: "error", Format: "text"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
		Frontend:  config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}
