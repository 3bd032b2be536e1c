package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
	"github.com/dmitrijs2005/vaultkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "15m" or
// integer nanoseconds. Pointer fields distinguish "absent" from zero values
// so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP        *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC        *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN             *string         `json:"database_dsn"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	OTPValidityDuration     *timex.Duration `json:"otp_validity_duration"`
	OTPMaxAttempts          *int            `json:"otp_max_attempts"`
	DemoAccountEmail        *string         `json:"demo_account_email"`
	DemoAccountPassword     *string         `json:"demo_account_password"`
	DemoAccountFullName     *string         `json:"demo_account_full_name"`
	AvatarBaseURL           *string         `json:"avatar_base_url"`
	MailFrom                *string         `json:"mail_from"`
	SMTPAddr                *string         `json:"smtp_addr"`
	S3RootUser              *string         `json:"s3_root_user"`
	S3RootPassword          *string         `json:"s3_root_password"`
	S3Bucket                *string         `json:"s3_bucket"`
	S3Region                *string         `json:"s3_region"`
	S3BaseEndpoint          *string         `json:"s3_base_endpoint"`
	DemoQuotaBytes          *int64          `json:"demo_quota_bytes"`
	StandardQuotaBytes      *int64          `json:"standard_quota_bytes"`
	SecureCookies           *bool           `json:"secure_cookies"`
}

// parseJson overlays the JSON file named by -c/-config in args onto config.
// Without such a flag nothing happens. Unreadable or malformed files panic:
// the server must not start on a half-applied configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.OTPValidityDuration != nil {
		config.OTPValidityDuration = c.OTPValidityDuration.Duration
	}
	if c.OTPMaxAttempts != nil {
		config.OTPMaxAttempts = *c.OTPMaxAttempts
	}
	setString(&config.DemoAccountEmail, c.DemoAccountEmail)
	setString(&config.DemoAccountPassword, c.DemoAccountPassword)
	setString(&config.DemoAccountFullName, c.DemoAccountFullName)
	setString(&config.AvatarBaseURL, c.AvatarBaseURL)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.DemoQuotaBytes != nil {
		config.DemoQuotaBytes = *c.DemoQuotaBytes
	}
	if c.StandardQuotaBytes != nil {
		config.StandardQuotaBytes = *c.StandardQuotaBytes
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
