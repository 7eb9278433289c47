package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret    string
	WebhookToken string

	// dispatch loop
	TickInterval    time.Duration
	ClaimBatchSize  int
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	StaleClaimAfter time.Duration

	// outbound mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	MailTimeout  time.Duration
	MailRate     int // sends per second
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		JWTSecret:    mustGetenv("JWT_SECRET"),
		WebhookToken: getenv("WEBHOOK_TOKEN", ""),

		TickInterval:    getenvDuration("TICK_INTERVAL", 60*time.Second),
		ClaimBatchSize:  getenvInt("CLAIM_BATCH_SIZE", 50),
		MaxAttempts:     getenvInt("MAX_ATTEMPTS", 3),
		BackoffBase:     getenvDuration("BACKOFF_BASE", 2*time.Minute),
		BackoffMax:      getenvDuration("BACKOFF_MAX", 30*time.Minute),
		StaleClaimAfter: getenvDuration("STALE_CLAIM_AFTER", 5*time.Minute),

		SMTPHost:     getenv("SMTP_HOST", "localhost"),
		SMTPPort:     getenvInt("SMTP_PORT", 1025),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "reminders@nudge.local"),
		MailTimeout:  getenvDuration("MAIL_TIMEOUT", 10*time.Second),
		MailRate:     getenvInt("MAIL_RATE", 10),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
