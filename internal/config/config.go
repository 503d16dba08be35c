package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	OpenAIAPIKey  string
	Model         string
	AllowedOrigin string
	// Auth
	JWTSecret string
	TokenTTL  time.Duration
	// Storage: file-backed by default, Postgres when DB_URL is set
	DataDir     string
	DatabaseURL string
	// NLU prompt spec
	IntentSpecPath string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:           getEnvDefault("PORT", "8080"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		Model:          getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		AllowedOrigin:  getEnvDefault("ALLOWED_ORIGIN", "*"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       time.Duration(getEnvIntDefault("TOKEN_TTL_MINUTES", 60*24)) * time.Minute,
		DataDir:        getEnvDefault("DATA_DIR", "data"),
		DatabaseURL:    os.Getenv("DB_URL"),
		IntentSpecPath: getEnvDefault("INTENT_SPEC_PATH", "prompts/intent.yaml"),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; NLU calls will fail until provided")
	}
	if cfg.JWTSecret == "" {
		log.Println("warning: JWT_SECRET is not set; using an insecure default")
		cfg.JWTSecret = "dev-only-secret"
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("warning: invalid %s=%q, using default %d", key, v, def)
	}
	return def
}
