package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
)

type Config struct {
	DBType        string
	DBPath        string
	DBDSN         string
	DBAutoMigrate bool

	HTTPHostPort string
	GRPCHostPort string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	UserEndpoint   string
	WebdavEndpoint string

	AllowedExtensions []string
	MaxContentLength  int
	UpstreamTimeout   time.Duration
	BreakerFailures   int

	StorageNamespace string
	MinMimetypeClass int
}

var configSchema = z.Struct(z.Shape{
	"DBType":            z.String().OneOf([]string{"file", "memory", "postgres"}).Required(),
	"JWTSecret":         z.String().Min(16).Required(),
	"UserEndpoint":      z.String().URL().Required(),
	"WebdavEndpoint":    z.String().URL().Required(),
	"AllowedExtensions": z.Slice(z.String().Min(1)).Min(1),
	"MaxContentLength":  z.Int().GT(0),
	"BreakerFailures":   z.Int().GTE(1),
	"StorageNamespace":  z.String().Min(1).Required(),
})

func envOr(key, fallback string) string {
	if v, found := os.LookupEnv(key); found && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := envOr(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be an int value: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := envOr(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be a duration like 15m: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimPrefix(strings.TrimSpace(item), ".")
		if item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

// LoadConfig reads the process environment (after .env has been loaded) and
// validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBType:            envOr(EnvKeyIOTDBType, "file"),
		DBPath:            envOr(EnvKeyIOTDbPath, "gateway.db"),
		DBDSN:             envOr(EnvKeyIOTDbDSN, ""),
		HTTPHostPort:      envOr(EnvKeyIOTHttpHostPort, ":1080"),
		GRPCHostPort:      envOr(EnvKeyIOTGrpcHostPort, ""),
		JWTSecret:         envOr(EnvKeyIOTJwtSecret, ""),
		UserEndpoint:      envOr(EnvKeyIOTUserEndpoint, ""),
		WebdavEndpoint:    envOr(EnvKeyIOTWebdavEndpoint, ""),
		AllowedExtensions: splitList(envOr(EnvKeyIOTAllowedExt, "txt,csv,json,jpg,png,wav")),
		StorageNamespace:  envOr(EnvKeyIOTStorageNS, "files/"),
	}

	var err error
	cfg.DBAutoMigrate, err = strconv.ParseBool(envOr(EnvKeyIOTDbAutoMigrate, strconv.FormatBool(cfg.DBType != "postgres")))
	if err != nil {
		return nil, fmt.Errorf("invalid %s, should be a bool value: %w", EnvKeyIOTDbAutoMigrate, err)
	}
	if cfg.AccessTTL, err = envDuration(EnvKeyIOTJwtAccessTTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = envDuration(EnvKeyIOTJwtRefreshTTL, 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = envDuration(EnvKeyIOTUpstreamTimeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxContentLength, err = envInt(EnvKeyIOTMaxContentLen, 16*1024*1024); err != nil {
		return nil, err
	}
	if cfg.BreakerFailures, err = envInt(EnvKeyIOTBreakerFailures, 5); err != nil {
		return nil, err
	}
	if cfg.MinMimetypeClass, err = envInt(EnvKeyIOTMinMimetype, 2); err != nil {
		return nil, err
	}

	if issues := configSchema.Validate(cfg); issues != nil {
		return nil, fmt.Errorf("invalid configuration: %s", IssuesMessage(issues))
	}
	if cfg.DBType == "postgres" && cfg.DBDSN == "" {
		return nil, fmt.Errorf("%s is required when %s=postgres", EnvKeyIOTDbDSN, EnvKeyIOTDBType)
	}

	return cfg, nil
}
