package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr   string
	DBPath       string
	PhotoPath    string
	LogLevel     string
	LogFile      string
	CORSOrigin   string
	ModelBackend string
	ModelAPIKey  string
	ModelBaseURL string
	VisionModel  string
	TextModel    string
	ClaudeAPIKey string
	ClaudeModel  string
	OllamaHost   string
	OllamaModel  string
	ModelTimeout time.Duration
	MaxTokens    int
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first; variables already set in the
// environment take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":5000"),
		DBPath:       getEnv("DB_PATH", "/data/nutriscan.db"),
		PhotoPath:    getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
		ModelBackend: getEnv("MODEL_BACKEND", "openai"),
		ModelAPIKey:  getEnv("MODEL_API_KEY", os.Getenv("GROQ_API_KEY")),
		ModelBaseURL: getEnv("MODEL_BASE_URL", "https://api.groq.com/openai/v1"),
		VisionModel:  getEnv("VISION_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		TextModel:    getEnv("TEXT_MODEL", "llama-3.3-70b-versatile"),
		ClaudeAPIKey: getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:  getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:  getEnv("OLLAMA_MODEL", "llava"),
		ModelTimeout: getDuration("MODEL_TIMEOUT", 60*time.Second),
		MaxTokens:    getInt("MAX_TOKENS", 1024),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
