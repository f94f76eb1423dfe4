package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	SentryDSN   string

	// Speech-to-text
	STTProvider    string // "deepgram" or "whisperx"
	DeepgramAPIKey string
	DeepgramModel  string
	WhisperXBinary string
	WhisperXModel  string

	// Diarization sidecar (optional; silence heuristic when unset)
	DiarizerURL string

	// LLM + embeddings
	OpenAIAPIKey   string
	OpenAIModel    string
	EmbeddingModel string

	// Structuring engine
	EngineMaxGap float64 // seconds of silence bridged within one turn
	TagRulesPath string  // optional YAML override of the tagging vocabulary

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Background worker
	WorkerPollInterval time.Duration

	// JWT Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// Notifications
	DiscordWebhookURL string

	// APNs Push Notifications
	APNsKeyPath    string
	APNsKeyID      string
	APNsTeamID     string
	APNsBundleID   string
	APNsProduction bool
}

func LoadConfigFromEnv() Config {
	jwtExpiry, err := time.ParseDuration(getenv("JWT_EXPIRY", "720h"))
	if err != nil {
		jwtExpiry = 720 * time.Hour
	}

	pollInterval, err := time.ParseDuration(getenv("WORKER_POLL_INTERVAL", "5s"))
	if err != nil {
		pollInterval = 5 * time.Second
	}

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		SentryDSN:   getenv("SENTRY_DSN", ""),

		// Speech-to-text
		STTProvider:    getenv("STT_PROVIDER", "deepgram"),
		DeepgramAPIKey: getenv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:  getenv("DEEPGRAM_MODEL", "nova-3"),
		WhisperXBinary: getenv("WHISPERX_BINARY", "whisperx"),
		WhisperXModel:  getenv("WHISPERX_MODEL", ""),

		DiarizerURL: getenv("DIARIZER_URL", ""),

		// LLM + embeddings
		OpenAIAPIKey:   getenv("OPENAI_API_KEY", ""),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getenv("EMBEDDING_MODEL", "text-embedding-3-small"),

		// Structuring engine
		EngineMaxGap: getenvFloatClamped("ENGINE_MAX_GAP_SECONDS", 0, 0, 30),
		TagRulesPath: getenv("TAG_RULES_PATH", ""),

		// Uploads
		UploadDir:      getenv("UPLOAD_DIR", "/var/lib/interviewally/uploads"),
		MaxUploadBytes: int64(getenvIntClamped("MAX_UPLOAD_MB", 500, 1, 2048)) << 20,

		WorkerPollInterval: pollInterval,

		// JWT Authentication
		JWTSecret: os.Getenv("JWT_SECRET"), // Required - no fallback for security
		JWTExpiry: jwtExpiry,

		// Notifications
		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),

		// APNs Push Notifications
		APNsKeyPath:    getenv("APNS_KEY_PATH", ""),
		APNsKeyID:      getenv("APNS_KEY_ID", ""),
		APNsTeamID:     getenv("APNS_TEAM_ID", ""),
		APNsBundleID:   getenv("APNS_BUNDLE_ID", ""),
		APNsProduction: getenv("APNS_PRODUCTION", "") == "true",
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}
