package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it. Invalid numeric values panic, like malformed JSON config does.
func parseEnv(config *Config) {
	// .env is optional; variables may come from the container environment
	_ = godotenv.Load()

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.APIPrefix, "API_PREFIX")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "JWT_SECRET")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setInt(&config.SystemCapacity, "SYSTEM_CAPACITY")
	setInt(&config.CutoffHour, "CUTOFF_HOUR")
	setString(&config.Timezone, "TIMEZONE")
	setString(&config.RollPrefix, "ROLL_PREFIX")
	setInt(&config.RollMin, "ROLL_MIN")
	setInt(&config.RollMax, "ROLL_MAX")
	setString(&config.BrevoAPIKey, "BREVO_API_KEY")
	setString(&config.BrevoBaseURL, "BREVO_BASE_URL")
	setString(&config.SenderEmail, "SENDER_EMAIL")
	setString(&config.SenderName, "SENDER_NAME")
	setString(&config.LoginURL, "LOGIN_URL")
	setDuration(&config.NotifyTimeout, "NOTIFY_TIMEOUT")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.RedisPassword, "REDIS_PASSWORD")
	setInt(&config.NotifyMaxRetry, "NOTIFY_MAX_RETRY")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.LogBackend, "LOG_BACKEND")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("env %s: %w", key, err))
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("env %s: %w", key, err))
	}
	*dst = d
}
