package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"endpoint_addr_http":        "www.example:9000",
		"endpoint_addr_grpc":        "www.example:9001",
		"database_dsn":              "vault.db",
		"secret_key":                "my_secret_key",
		"session_validity_duration": "24h",
		"otp_validity_duration":     "10m",
		"otp_max_attempts":          3,
		"demo_account_email":        "guest@demo.com",
		"demo_account_password":     "guest",
		"demo_account_full_name":    "Guest",
		"avatar_base_url":           "https://avatars.example/svg",
		"mail_from":                 "otp@example.com",
		"smtp_addr":                 "smtp:25",
		"s3_root_user":              "user",
		"s3_root_password":          "password",
		"s3_bucket":                 "bucket",
		"s3_region":                 "region",
		"s3_base_endpoint":          "base_endpoint",
		"demo_quota_bytes":          1024,
		"standard_quota_bytes":      2048,
		"secure_cookies":            false,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", full})

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9001", cfg.EndpointAddrGRPC)
		assert.Equal(t, "vault.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, 10*time.Minute, cfg.OTPValidityDuration)
		assert.Equal(t, 3, cfg.OTPMaxAttempts)
		assert.Equal(t, "guest@demo.com", cfg.DemoAccountEmail)
		assert.Equal(t, "guest", cfg.DemoAccountPassword)
		assert.Equal(t, "Guest", cfg.DemoAccountFullName)
		assert.Equal(t, "https://avatars.example/svg", cfg.AvatarBaseURL)
		assert.Equal(t, "otp@example.com", cfg.MailFrom)
		assert.Equal(t, "smtp:25", cfg.SMTPAddr)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, int64(1024), cfg.DemoQuotaBytes)
		assert.Equal(t, int64(2048), cfg.StandardQuotaBytes)
		assert.False(t, cfg.SecureCookies)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "override"})

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", partial})

		assert.Equal(t, "override", cfg.SecretKey)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.True(t, cfg.SecureCookies)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key"}
		parseJson(cfg, []string{"-a", "ignored"})

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", filepath.Join(dir, "nope.json")}) })
	})
}
