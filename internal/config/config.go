package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Token issuance constants shared by every credential family.
const (
	TokenIssuer   = "sdk-admin-portal"
	TokenAudience = "sdk-admin-portal-web"

	// CookieName carries the signed portal credential.
	CookieName = "auth-token"

	PortalTokenTTL   = 8 * time.Hour
	DriverAccessTTL  = 15 * time.Minute
	DriverRefreshTTL = 30 * 24 * time.Hour
)

type AppConfig struct {
	// Server
	HTTPAddr string
	Env      string

	// Stores
	DatabaseURL string
	RedisAddr   string
	RedisPass   string

	// Signing secrets. Three independent families: the portal cookie, the
	// driver-app access token and the driver-app refresh token.
	PortalTokenSecret   string
	DriverAccessSecret  string
	DriverRefreshSecret string

	// Edge gatekeeper
	ProtectedPrefixes []string
	SignInPath        string
}

// Load reads environment variables into AppConfig. A missing signing secret
// is a configuration error: the process must not start without it.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
		Env:      getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASS", ""),

		PortalTokenSecret:   os.Getenv("PORTAL_TOKEN_SECRET"),
		DriverAccessSecret:  os.Getenv("DRIVER_ACCESS_SECRET"),
		DriverRefreshSecret: os.Getenv("DRIVER_REFRESH_SECRET"),

		ProtectedPrefixes: getEnvSlice("PROTECTED_PREFIXES", []string{
			"/dashboard", "/calendar", "/funerals", "/transactions",
			"/policies", "/prepaid-societies", "/daily-activity",
			"/claims", "/users", "/account",
		}),
		SignInPath: getEnv("SIGN_IN_PATH", "/sign-in"),
	}

	for name, v := range map[string]string{
		"PORTAL_TOKEN_SECRET":   cfg.PortalTokenSecret,
		"DRIVER_ACCESS_SECRET":  cfg.DriverAccessSecret,
		"DRIVER_REFRESH_SECRET": cfg.DriverRefreshSecret,
	} {
		if v == "" {
			return AppConfig{}, fmt.Errorf("required secret %s is not set", name)
		}
	}

	return cfg, nil
}

// IsProduction reports whether the Secure cookie attribute should be set.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
