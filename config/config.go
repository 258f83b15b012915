package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	CMS           CMSConfig
	SheetDB       SheetDBConfig
	Membership    MembershipConfig
	Publish       PublishConfig
	Auth          AuthConfig
	MemberSession MemberSessionConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	WorkOffline bool
}

// CMSConfig configures the headless CMS (Webflow-style) collaborator.
// Reads go through the CORS relay worker; writes hit the API directly.
type CMSConfig struct {
	APIBaseURL        string
	RelayURL          string
	APIToken          string
	JobsCollectionID  string
	SiteID            string
	OptionCollections map[string]string // option table name -> collection ID
	WorkOffline       bool
}

// SheetDBConfig configures the relational-sheet backend, reached through its
// Cloudflare worker sub-paths (/create, /update, /delete, /search-member).
type SheetDBConfig struct {
	WorkerURL string
	AuthToken string
}

// MembershipConfig configures the membership/auth backend worker.
type MembershipConfig struct {
	WorkerURL string
	AuthToken string
}

// PublishConfig tunes the publish transaction itself.
type PublishConfig struct {
	SupportEmail          string
	IdempotencyTTLMinutes int
	OutboxIntervalSeconds int
	StandardJobCredits    int
	PremiumJobCredits     int
}

type AuthConfig struct {
	JobsAPIToken     string
	InternalAPIToken string
}

type MemberSessionConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
	CookieDomain    string
	CookieSecure    bool
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	JobTTLSeconds    int // Job listing cache TTL in seconds
	OptionTTLSeconds int // Option lookup table cache TTL in seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8082")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://creatorjobs.com")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://creatorjobs.com,https://www.creatorjobs.com")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("CMS_API_BASE_URL", "https://api.webflow.com/v2")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "creatorjobs-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "creatorjobs")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "creatorjobs-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)
	v.SetDefault("JOB_CACHE_TTL", 300)
	v.SetDefault("OPTION_CACHE_TTL", 3600)
	v.SetDefault("SUPPORT_EMAIL", "support@creatorjobs.com")
	v.SetDefault("IDEMPOTENCY_TTL_MINUTES", 60)
	v.SetDefault("OUTBOX_INTERVAL_SECONDS", 30)
	v.SetDefault("STANDARD_JOB_CREDITS", 1)
	v.SetDefault("PREMIUM_JOB_CREDITS", 3)

	// Member session defaults
	v.SetDefault("JWT_ISSUER", "creatorjobs-api")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: allowedOrigins,
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			MaxConns:    10,
			MinConns:    2,
			WorkOffline: v.GetBool("DB_WORK_OFFLINE"),
		},
		CMS: CMSConfig{
			APIBaseURL:       v.GetString("CMS_API_BASE_URL"),
			RelayURL:         v.GetString("CMS_RELAY_URL"),
			APIToken:         v.GetString("CMS_API_TOKEN"),
			JobsCollectionID: v.GetString("CMS_JOBS_COLLECTION_ID"),
			SiteID:           v.GetString("CMS_SITE_ID"),
			OptionCollections: map[string]string{
				"categories": v.GetString("CMS_CATEGORIES_COLLECTION_ID"),
				"languages":  v.GetString("CMS_LANGUAGES_COLLECTION_ID"),
				"countries":  v.GetString("CMS_COUNTRIES_COLLECTION_ID"),
			},
			WorkOffline: v.GetBool("CMS_WORK_OFFLINE"),
		},
		SheetDB: SheetDBConfig{
			WorkerURL: v.GetString("SHEETDB_WORKER_URL"),
			AuthToken: v.GetString("SHEETDB_AUTH_TOKEN"),
		},
		Membership: MembershipConfig{
			WorkerURL: v.GetString("MEMBERSHIP_WORKER_URL"),
			AuthToken: v.GetString("MEMBERSHIP_AUTH_TOKEN"),
		},
		Publish: PublishConfig{
			SupportEmail:          v.GetString("SUPPORT_EMAIL"),
			IdempotencyTTLMinutes: v.GetInt("IDEMPOTENCY_TTL_MINUTES"),
			OutboxIntervalSeconds: v.GetInt("OUTBOX_INTERVAL_SECONDS"),
			StandardJobCredits:    v.GetInt("STANDARD_JOB_CREDITS"),
			PremiumJobCredits:     v.GetInt("PREMIUM_JOB_CREDITS"),
		},
		Auth: AuthConfig{
			JobsAPIToken:     v.GetString("JOBS_API_AUTH_TOKEN"),
			InternalAPIToken: v.GetString("INTERNAL_API_AUTH_TOKEN"),
		},
		MemberSession: MemberSessionConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
			CookieDomain:    v.GetString("COOKIE_DOMAIN"),
			CookieSecure:    v.GetBool("COOKIE_SECURE"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			JobTTLSeconds:    v.GetInt("JOB_CACHE_TTL"),
			OptionTTLSeconds: v.GetInt("OPTION_CACHE_TTL"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if !c.Database.WorkOffline && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when not in offline mode")
	}

	if !c.CMS.WorkOffline {
		if c.CMS.APIToken == "" {
			return fmt.Errorf("CMS_API_TOKEN is required")
		}
		if c.CMS.JobsCollectionID == "" {
			return fmt.Errorf("CMS_JOBS_COLLECTION_ID is required")
		}
		if c.CMS.RelayURL == "" {
			return fmt.Errorf("CMS_RELAY_URL is required")
		}
	}

	if c.SheetDB.WorkerURL == "" {
		return fmt.Errorf("SHEETDB_WORKER_URL is required")
	}
	if c.Membership.WorkerURL == "" {
		return fmt.Errorf("MEMBERSHIP_WORKER_URL is required")
	}

	if c.Auth.JobsAPIToken == "" {
		return fmt.Errorf("JOBS_API_AUTH_TOKEN is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
