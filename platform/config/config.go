// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides redis connection settings for the session store,
// webhook dedupe keys and notification rate limits.
type RedisConfig interface {
	GetRedisURL() string
}

// JWTConfig provides JWT validation settings for the property-manager API.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayKey() string
	GetSMSFromNumber() string
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// ClassifierConfig provides settings for the external message classifier.
type ClassifierConfig interface {
	GetGeminiAPIKey() string
	GetClassifierModel() string
	GetClassifierTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq dispatch queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WorkflowConfig provides settings consumed by the intake pipeline and
// notification router.
type WorkflowConfig interface {
	GetAgencyName() string
	GetPropertyManagerEmail() string
	GetPropertyManagerPhone() string
	GetEscalationPhone() string
	GetSessionTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	RedisURL             string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	WhatsAppURL          string
	WhatsAppKey          string
	WhatsAppDeviceID     string
	SMSGatewayURL        string
	SMSGatewayKey        string
	SMSFromNumber        string
	EmailEnabled         bool
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	GeminiAPIKey         string
	ClassifierModel      string
	ClassifierTimeout    time.Duration
	AsynqQueueName       string
	AsynqConcurrency     int
	AgencyName           string
	PropertyManagerEmail string
	PropertyManagerPhone string
	EscalationPhone      string
	SessionTTL           time.Duration
}

// Load reads configuration from the environment (and .env in development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		WhatsAppURL:          getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:          getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID:     getEnv("WHATSAPP_DEVICE_ID", ""),
		SMSGatewayURL:        getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:        getEnv("SMS_GATEWAY_KEY", ""),
		SMSFromNumber:        getEnv("SMS_FROM_NUMBER", ""),
		EmailEnabled:         emailEnabled && smtpHost != "",
		SMTPHost:             smtpHost,
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "PropCare Maintenance"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		ClassifierModel:      getEnv("CLASSIFIER_MODEL", "gemini-2.0-flash"),
		ClassifierTimeout:    mustDuration(getEnv("CLASSIFIER_TIMEOUT", "10s"), 10*time.Second),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "notifications"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		AgencyName:           getEnv("AGENCY_NAME", "PropCare Property Management"),
		PropertyManagerEmail: getEnv("PROPERTY_MANAGER_EMAIL", ""),
		PropertyManagerPhone: getEnv("PROPERTY_MANAGER_PHONE", ""),
		EscalationPhone:      getEnv("ESCALATION_PHONE", ""),
		SessionTTL:           mustDuration(getEnv("SESSION_TTL", "24h"), 24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.PropertyManagerEmail == "" {
		return nil, fmt.Errorf("PROPERTY_MANAGER_EMAIL is required")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string              { return c.DatabaseURL }
func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetJWTAccessSecret() string          { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string                 { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool               { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string            { return c.CORSOrigins }
func (c *Config) GetWhatsAppURL() string              { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string              { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string         { return c.WhatsAppDeviceID }
func (c *Config) GetSMSGatewayURL() string            { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayKey() string            { return c.SMSGatewayKey }
func (c *Config) GetSMSFromNumber() string            { return c.SMSFromNumber }
func (c *Config) GetEmailEnabled() bool               { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                 { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                    { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string             { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string             { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string            { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string         { return c.EmailFromAddress }
func (c *Config) GetGeminiAPIKey() string             { return c.GeminiAPIKey }
func (c *Config) GetClassifierModel() string          { return c.ClassifierModel }
func (c *Config) GetClassifierTimeout() time.Duration { return c.ClassifierTimeout }
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetAgencyName() string               { return c.AgencyName }
func (c *Config) GetPropertyManagerEmail() string     { return c.PropertyManagerEmail }
func (c *Config) GetPropertyManagerPhone() string     { return c.PropertyManagerPhone }
func (c *Config) GetEscalationPhone() string          { return c.EscalationPhone }
func (c *Config) GetSessionTTL() time.Duration        { return c.SessionTTL }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func mustInt(value string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
