package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eventportal/internal/flagx"
	"github.com/dmitrijs2005/eventportal/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Durations
// use timex.Duration so both "24h" and integer nanoseconds are accepted.
// Integer fields are pointers so that an explicit 0 (e.g. cutoff_hour) can be
// told apart from an absent key.
type JsonConfig struct {
	EndpointAddrHTTP            string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	APIPrefix                   string          `json:"api_prefix"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	SystemCapacity              *int            `json:"system_capacity"`
	CutoffHour                  *int            `json:"cutoff_hour"`
	Timezone                    string          `json:"timezone"`
	RollPrefix                  string          `json:"roll_prefix"`
	RollMin                     *int            `json:"roll_min"`
	RollMax                     *int            `json:"roll_max"`
	BrevoAPIKey                 string          `json:"brevo_api_key"`
	BrevoBaseURL                string          `json:"brevo_base_url"`
	SenderEmail                 string          `json:"sender_email"`
	SenderName                  string          `json:"sender_name"`
	LoginURL                    string          `json:"login_url"`
	NotifyTimeout               *timex.Duration `json:"notify_timeout"`
	RedisAddr                   string          `json:"redis_addr"`
	RedisPassword               string          `json:"redis_password"`
	NotifyMaxRetry              *int            `json:"notify_max_retry"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	LogBackend                  string          `json:"log_backend"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded. Keys absent from the file
// keep their current value. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlayString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlayString(&config.APIPrefix, c.APIPrefix)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	overlayInt(&config.SystemCapacity, c.SystemCapacity)
	overlayInt(&config.CutoffHour, c.CutoffHour)
	overlayString(&config.Timezone, c.Timezone)
	overlayString(&config.RollPrefix, c.RollPrefix)
	overlayInt(&config.RollMin, c.RollMin)
	overlayInt(&config.RollMax, c.RollMax)
	overlayString(&config.BrevoAPIKey, c.BrevoAPIKey)
	overlayString(&config.BrevoBaseURL, c.BrevoBaseURL)
	overlayString(&config.SenderEmail, c.SenderEmail)
	overlayString(&config.SenderName, c.SenderName)
	overlayString(&config.LoginURL, c.LoginURL)
	if c.NotifyTimeout != nil {
		config.NotifyTimeout = c.NotifyTimeout.Duration
	}
	overlayString(&config.RedisAddr, c.RedisAddr)
	overlayString(&config.RedisPassword, c.RedisPassword)
	overlayInt(&config.NotifyMaxRetry, c.NotifyMaxRetry)
	overlayString(&config.S3RootUser, c.S3RootUser)
	overlayString(&config.S3RootPassword, c.S3RootPassword)
	overlayString(&config.S3Bucket, c.S3Bucket)
	overlayString(&config.S3Region, c.S3Region)
	overlayString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlayString(&config.LogBackend, c.LogBackend)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
