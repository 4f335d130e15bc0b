package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	ListenAddr      string
	DatabaseURL     string
	LogLevel        string
	AssignWorkers   int
	MaxConns        int
	MigrateOnStart  bool
	ExpiryWarnDays  int
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	PresignTTL      time.Duration
	GeminiAPIKey    string
	GeminiModel     string
	SchedulerRules  string
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads configuration from the environment, after merging any .env file
// found in the working directory. Variables already set win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getenv("APP_ENV", "development"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		AssignWorkers:   getenvInt("ASSIGN_WORKERS", 0),
		MaxConns:        getenvInt("MAX_CONNS", 256),
		MigrateOnStart:  getenv("MIGRATE_ON_START", "false") == "true",
		ExpiryWarnDays:  getenvInt("EXPIRY_WARN_DAYS", 30),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        getenv("S3_REGION", "eu-north-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		PresignTTL:      getenvDuration("PRESIGN_TTL", 15*time.Minute),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		SchedulerRules:  os.Getenv("SCHEDULER_RULES"),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for commands that never touch the database; callers decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func (c Config) Development() bool { return c.Env == "development" }

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
