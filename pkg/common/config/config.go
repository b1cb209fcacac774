package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers       []string
	ContentEventsTopic string

	// Authorization
	CronSecret         string
	AllowedOrigins     []string
	AdminTokenSecret   string
	AdminTokenIssuer   string
	AdminTokenAudience string

	// RSS
	RSSFeedURLs  []string
	RSSRulesPath string

	// Game catalog
	CatalogClientID     string
	CatalogClientSecret string
	CatalogTokenURL     string
	CatalogAPIURL       string
	CatalogCacheTTL     time.Duration
	CatalogQueries      []string
	ReleaseMirrorURL    string

	// Clips
	ClipsAPIURL        string
	ClipsBroadcasterID string

	// Draft gate
	AutoPublishNews     bool
	AutoPublishReleases bool
	AutoPublishVideos   bool
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "contentsync"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "contentsync123"),
		PostgresDB:       getEnv("POSTGRES_DB", "contentsync"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		ContentEventsTopic: getEnv("CONTENT_EVENTS_TOPIC", "content-events"),

		CronSecret:         os.Getenv("CRON_SECRET"),
		AllowedOrigins:     getStringSliceEnv("ALLOWED_ORIGINS", nil),
		AdminTokenSecret:   os.Getenv("ADMIN_TOKEN_SECRET"),
		AdminTokenIssuer:   getEnv("ADMIN_TOKEN_ISSUER", "emberworks"),
		AdminTokenAudience: getEnv("ADMIN_TOKEN_AUDIENCE", "content-sync"),

		RSSFeedURLs:  getStringSliceEnv("RSS_FEED_URLS", nil),
		RSSRulesPath: os.Getenv("RSS_RULES_PATH"),

		CatalogClientID:     os.Getenv("CATALOG_CLIENT_ID"),
		CatalogClientSecret: os.Getenv("CATALOG_CLIENT_SECRET"),
		CatalogTokenURL:     getEnv("CATALOG_TOKEN_URL", "https://id.twitch.tv/oauth2/token"),
		CatalogAPIURL:       getEnv("CATALOG_API_URL", "https://api.igdb.com/v4"),
		CatalogCacheTTL:     getDuration("CATALOG_CACHE_TTL", 15*time.Minute),
		CatalogQueries:      getStringSliceEnv("CATALOG_QUERIES", []string{"emberworks"}),
		ReleaseMirrorURL:    os.Getenv("RELEASE_MIRROR_URL"),

		ClipsAPIURL:        getEnv("CLIPS_API_URL", "https://api.twitch.tv/helix/clips"),
		ClipsBroadcasterID: os.Getenv("CLIPS_BROADCASTER_ID"),

		AutoPublishNews:     getBoolEnv("AUTO_PUBLISH_NEWS", false),
		AutoPublishReleases: getBoolEnv("AUTO_PUBLISH_RELEASES", true),
		AutoPublishVideos:   getBoolEnv("AUTO_PUBLISH_VIDEOS", false),
	}
}

// Validate reports every missing hard requirement at once so an operator can
// fix the deployment in a single pass.
func (c *Config) Validate() error {
	var errs []string

	if c.AdminTokenSecret == "" && c.CronSecret == "" {
		errs = append(errs, "at least one of ADMIN_TOKEN_SECRET or CRON_SECRET must be set")
	}
	if c.AdminTokenSecret != "" && len(c.AdminTokenSecret) < 16 {
		errs = append(errs, "ADMIN_TOKEN_SECRET must be at least 16 characters")
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, "ALLOWED_ORIGINS is required")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.New("config: " + strings.Join(errs, "; "))
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDB,
		c.PostgresPort,
		c.PostgresSSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
