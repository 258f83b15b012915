package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_WORK_OFFLINE", "true")
	t.Setenv("CMS_WORK_OFFLINE", "true")
	t.Setenv("SHEETDB_WORKER_URL", "https://sheet.example")
	t.Setenv("MEMBERSHIP_WORKER_URL", "https://members.example")
	t.Setenv("JOBS_API_AUTH_TOKEN", "jobs-token")
}

func TestLoadWithDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://creatorjobs.com")
	assert.Equal(t, "https://api.webflow.com/v2", cfg.CMS.APIBaseURL)
	assert.Equal(t, "support@creatorjobs.com", cfg.Publish.SupportEmail)
	assert.Equal(t, 60, cfg.Publish.IdempotencyTTLMinutes)
	assert.Equal(t, 1, cfg.Publish.StandardJobCredits)
	assert.Equal(t, 3, cfg.Publish.PremiumJobCredits)
	assert.Equal(t, 300, cfg.Cache.JobTTLSeconds)
	assert.Equal(t, 24, cfg.MemberSession.SessionTTLHours)
	assert.True(t, cfg.MemberSession.CookieSecure)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_CORS_ORIGINS", "http://localhost:3000, http://localhost:8080")
	t.Setenv("PREMIUM_JOB_CREDITS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Publish.PremiumJobCredits)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
}

func TestLoadRequiresSheetWorkerURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHEETDB_WORKER_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEETDB_WORKER_URL")
}

func TestLoadRequiresJobsAPIToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JOBS_API_AUTH_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOBS_API_AUTH_TOKEN")
}

func TestValidateCMSOnlineMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CMS_WORK_OFFLINE", "false")
	t.Setenv("CMS_API_TOKEN", "tok")
	t.Setenv("CMS_JOBS_COLLECTION_ID", "coll-1")

	// Relay URL still missing
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CMS_RELAY_URL")

	t.Setenv("CMS_RELAY_URL", "https://relay.example")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "coll-1", cfg.CMS.JobsCollectionID)
}

func TestValidateDatabaseOnlineMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_WORK_OFFLINE", "false")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidateProfilingEndpoint(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("O11Y_PROFILING_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "O11Y_PROFILING_ENDPOINT")
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{Server: ServerConfig{AppEnv: "development"}}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg = &Config{Server: ServerConfig{AppEnv: "production", GinMode: "release"}}
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())

	cfg = &Config{Server: ServerConfig{AppEnv: "production", GinMode: "debug"}}
	assert.True(t, cfg.IsDevelopment())
}
