package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	// Server
	Port           int
	AllowedOrigins []string
	LogLevel       string
	PublicURL      string

	// Database
	MongoURI      string
	MongoDatabase string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret        string
	JWTTokenDuration time.Duration

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	MailRetries  uint64

	// Password reset
	ResetOTPLength     int
	ResetOTPTTL        time.Duration
	ResetMaxAttempts   int
	ResetMaxRequests   int
	ResetRequestWindow time.Duration
	ResetCommitWindow  time.Duration
	ResetIPLimit       int
	ResetIPWindow      time.Duration
	BcryptCost         int
	MinPasswordLength  int

	// Social login
	SessionKey           string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	// LLM
	LLMAPIKey string
	LLMModel  string
}

// Load reads the process environment. Every value has a usable default
// except the secrets, which are left empty.
func Load() *Config {
	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:8080"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "storefront"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTokenDuration: getEnvAsDuration("JWT_TOKEN_DURATION", 24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", getEnv("SMTP_USERNAME", "")),
		MailRetries:  uint64(getEnvAsInt("MAIL_RETRIES", 3)),

		ResetOTPLength:     getEnvAsInt("RESET_OTP_LENGTH", 6),
		ResetOTPTTL:        getEnvAsDuration("RESET_OTP_TTL", 10*time.Minute),
		ResetMaxAttempts:   getEnvAsInt("RESET_MAX_ATTEMPTS", 5),
		ResetMaxRequests:   getEnvAsInt("RESET_MAX_REQUESTS", 5),
		ResetRequestWindow: getEnvAsDuration("RESET_REQUEST_WINDOW", time.Hour),
		ResetCommitWindow:  getEnvAsDuration("RESET_COMMIT_WINDOW", 15*time.Minute),
		ResetIPLimit:       getEnvAsInt("RESET_IP_LIMIT", 20),
		ResetIPWindow:      getEnvAsDuration("RESET_IP_WINDOW", 15*time.Minute),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),
		MinPasswordLength:  getEnvAsInt("MIN_PASSWORD_LENGTH", 8),

		SessionKey:           getEnv("SESSION_KEY", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),

		LLMAPIKey: getEnv("API_KEY", ""),
		LLMModel:  getEnv("LLM_MODEL", "gemini-2.5-flash"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
