package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/healthgateway/gateway/internal/platform/auth"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	LogLevel           string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer         string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL        string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience       string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey     string   `mapstructure:"AUTH_SIGNING_KEY"`
	SubjectClaimType   string   `mapstructure:"SUBJECT_CLAIM_TYPE"`
	ScopeClaimType     string   `mapstructure:"SCOPE_CLAIM_TYPE"`
	RouteIdentifierKey string   `mapstructure:"ROUTE_IDENTIFIER_KEY"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	DevSubject         string   `mapstructure:"DEV_SUBJECT"`
	DevScopes          string   `mapstructure:"DEV_SCOPES"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"AUTH_ISSUER",
	"AUTH_JWKS_URL",
	"AUTH_AUDIENCE",
	"AUTH_SIGNING_KEY",
	"SUBJECT_CLAIM_TYPE",
	"SCOPE_CLAIM_TYPE",
	"ROUTE_IDENTIFIER_KEY",
	"CORS_ORIGINS",
	"DEV_SUBJECT",
	"DEV_SCOPES",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	defaults := auth.DefaultClaimTypes()
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SUBJECT_CLAIM_TYPE", defaults.SubjectClaimType)
	v.SetDefault("SCOPE_CLAIM_TYPE", defaults.ScopeClaimType)
	v.SetDefault("ROUTE_IDENTIFIER_KEY", defaults.RouteIdentifierKey)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEV_SUBJECT", "DEVPATIENT1")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDatabase reports whether a PostgreSQL connection string was supplied.
// Without one the server keeps profiles and audit events in memory.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// ClaimTypes returns the claim names the authorization engine reads.
func (c *Config) ClaimTypes() auth.ClaimTypes {
	return auth.ClaimTypes{
		SubjectClaimType:   c.SubjectClaimType,
		ScopeClaimType:     c.ScopeClaimType,
		RouteIdentifierKey: c.RouteIdentifierKey,
	}
}

// ZerologLevel parses LOG_LEVEL, falling back to info.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// HasTokenValidation reports whether bearer tokens can be verified, either
// through an issuer, a JWKS endpoint or a shared signing key.
func (c *Config) HasTokenValidation() bool {
	return c.AuthIssuer != "" || c.AuthJWKSURL != "" || c.AuthSigningKey != ""
}

// Validate checks that the configuration is safe to run. Outside development
// token validation must be configured, and the dev signing key
// is refused in production.
func (c *Config) Validate() error {
	if c.SubjectClaimType == "" || c.ScopeClaimType == "" || c.RouteIdentifierKey == "" {
		return fmt.Errorf("SUBJECT_CLAIM_TYPE, SCOPE_CLAIM_TYPE and ROUTE_IDENTIFIER_KEY must not be empty")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.IsDev() {
		return nil
	}
	if !c.HasTokenValidation() {
		return fmt.Errorf(
			"AUTH_ISSUER, AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.IsProduction() && c.AuthSigningKey != "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must not be used in production")
	}
	return nil
}
