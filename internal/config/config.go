package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	StoreDriver          string
	DatabaseURL          string
	SeedData             bool
	UploadDir            string
	UploadURLPrefix      string
	UploadMaxBytes       int64
	CorsOrigins          []string
	LogMode              string
	LogDir               string
	LogRetentionDays     int
	MetricsSampleSeconds int
	MetricsDiskPath      string
	MetricsHistorySize   int
	VisitHistorySize     int
}

func Load() Config {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverMemory))
	if driver != DriverPostgres {
		driver = DriverMemory
	}
	databaseURL := envOr("DATABASE_URL", "")
	if driver == DriverPostgres {
		databaseURL = mustEnv("DATABASE_URL")
	}
	uploadDir := envOr("UPLOAD_DIR", "public/uploads")
	retention := envOrInt("LOG_RETENTION_DAYS", 7)
	if retention < 1 || retention > 7 {
		retention = 7
	}
	return Config{
		Port:                 envOr("PORT", "8080"),
		StoreDriver:          driver,
		DatabaseURL:          databaseURL,
		SeedData:             envOrBool("SEED_DATA", true),
		UploadDir:            uploadDir,
		UploadURLPrefix:      "/" + strings.Trim(envOr("UPLOAD_URL_PREFIX", "/uploads"), "/"),
		UploadMaxBytes:       int64(envOrInt("UPLOAD_MAX_BYTES", 50<<20)),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
		LogMode:              strings.ToLower(envOr("LOG_MODE", "dev")),
		LogDir:               envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:     retention,
		MetricsSampleSeconds: positive(envOrInt("METRICS_SAMPLE_INTERVAL", 5), 5),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", uploadDir),
		MetricsHistorySize:   positive(envOrInt("METRICS_HISTORY_SIZE", 720), 720),
		VisitHistorySize:     positive(envOrInt("VISIT_HISTORY_SIZE", 10000), 10000),
	}
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
