package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Search criteria
	Neighborhoods []string
	MaxPrice      int
	MinPrice      int
	BedRooms      []string // accepted bedroom counts, e.g. "studio", "1", "2"
	NoFee         bool

	// Fetch discipline
	RequestDelaySeconds int
	MaxFetchAttempts    int

	// Run mode
	DryRun   bool
	LogLevel string

	// Seen-store backend: "file" (default) or "postgres"
	SeenBackend string
	SeenPath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Notification transport
	DiscordWebhookURL string
	DiscordUsername   string
	DiscordAvatarURL  string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct. It returns
// an error when required fields are missing or malformed; the caller is
// expected to treat that as fatal.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		Neighborhoods: getEnvList("NEIGHBORHOODS", nil),
		MaxPrice:      getEnvInt("MAX_PRICE", 0),
		MinPrice:      getEnvInt("MIN_PRICE", 0),
		BedRooms:      getEnvList("BED_ROOMS", nil),
		NoFee:         getEnvBool("NO_FEE", false),

		RequestDelaySeconds: getEnvInt("REQUEST_DELAY_SECONDS", 2),
		MaxFetchAttempts:    getEnvInt("MAX_FETCH_ATTEMPTS", 3),

		DryRun:   getEnvBool("DRY_RUN", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SeenBackend: getEnv("SEEN_BACKEND", "file"),
		SeenPath:    getEnv("SEEN_PATH", "./seen_listings.json"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tracker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tracker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "apartments"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		DiscordUsername:   getEnv("DISCORD_USERNAME", "NYC Apartment Tracker"),
		DiscordAvatarURL:  getEnv("DISCORD_AVATAR_URL", ""),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Neighborhoods) == 0 {
		return fmt.Errorf("config: NEIGHBORHOODS must list at least one neighborhood slug")
	}
	if c.MaxPrice < 0 || c.MinPrice < 0 {
		return fmt.Errorf("config: price bounds must not be negative")
	}
	if c.MaxPrice > 0 && c.MinPrice > c.MaxPrice {
		return fmt.Errorf("config: MIN_PRICE %d exceeds MAX_PRICE %d", c.MinPrice, c.MaxPrice)
	}
	if c.MaxFetchAttempts < 1 {
		return fmt.Errorf("config: MAX_FETCH_ATTEMPTS must be at least 1")
	}
	if c.RequestDelaySeconds < 0 {
		return fmt.Errorf("config: REQUEST_DELAY_SECONDS must not be negative")
	}
	if c.SeenBackend != "file" && c.SeenBackend != "postgres" {
		return fmt.Errorf("config: unknown SEEN_BACKEND %q", c.SeenBackend)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList parses a comma-separated env var, trimming whitespace and
// dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
