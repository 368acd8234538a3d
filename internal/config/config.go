package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string

	JWTSecret        string
	ResetRedirectURL string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiColorModel string
	AnalyzeTimeout   time.Duration

	AWSRegion   string
	AssetBucket string

	CartMirrorPath   string
	ModelViewerSrc   string
	FallbackModelURL string

	// AR and analysis sessions idle for SessionIdle are closed; zero
	// disables expiry. MaxSessions caps each kind; zero means no cap.
	SessionIdle time.Duration
	MaxSessions int

	// SMTP is optional; without a host reset links go to the log.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using process environment")
	}

	port := env("PORT", "8080")
	// No default: an empty DSN means the backend is not configured and the
	// app runs against the gateway stub.
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Println("[warn] DB_DSN not set; backend features are disabled")
	}
	media := env("MEDIA_DIR", "./web/static")
	logFile := env("LOG_FILE", "./roomfit.log")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Println("[warn] JWT_SECRET not set; using an insecure development secret")
		secret = "roomfit-dev-secret"
	}

	timeout := 90 * time.Second
	if s := os.Getenv("ANALYZE_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	idle := 15 * time.Minute
	if s := os.Getenv("SESSION_IDLE_MINUTES"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			idle = time.Duration(n) * time.Minute
		}
	}
	maxSessions := 500
	if s := os.Getenv("MAX_SESSIONS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			maxSessions = n
		}
	}

	smtpPort := 587
	if s := os.Getenv("SMTP_PORT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			smtpPort = n
		}
	}

	cfg := Config{
		Port:     port,
		DBDSN:    dsn,
		MediaDir: media,
		LogFile:  logFile,

		JWTSecret:        secret,
		ResetRedirectURL: env("RESET_REDIRECT_URL", "roomfit://reset"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      env("GEMINI_MODEL", "gemini-2.5-pro"),
		GeminiColorModel: env("GEMINI_COLOR_MODEL", "gemini-1.5-flash"),
		AnalyzeTimeout:   timeout,

		AWSRegion:   env("AWS_REGION", "us-east-1"),
		AssetBucket: os.Getenv("ASSET_BUCKET"),

		CartMirrorPath:   os.Getenv("CART_MIRROR_PATH"),
		ModelViewerSrc:   env("MODEL_VIEWER_SRC", "https://unpkg.com/@google/model-viewer/dist/model-viewer.min.js"),
		FallbackModelURL: env("FALLBACK_MODEL_URL", "/static/models/chair.glb"),

		SessionIdle: idle,
		MaxSessions: maxSessions,

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: env("MAIL_FROM", "no-reply@roomfit.local"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s GEMINI_MODEL=%s ASSET_BUCKET=%s CART_MIRROR_PATH=%s SMTP_HOST=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.GeminiModel, cfg.AssetBucket, cfg.CartMirrorPath, cfg.SMTPHost)
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
