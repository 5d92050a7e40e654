package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Import pipeline
	OCRLang        string
	ExtractTimeout time.Duration
	MaxLabel       int // largest integer accepted as a question label
}

func FromEnv() Config {
	return Config{
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:  envOr("ADMIN_USER", "teacher"),
		// default: "teacher"
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$cCs9p1B8BWeZOSqlPOM1..rQ5HdFB3CL4xIC2cpOHmE3NQyXK1oMy"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		OCRLang:        envOr("OCR_LANG", "eng"),
		ExtractTimeout: envDur("EXTRACT_TIMEOUT", 30*time.Second),
		MaxLabel:       envInt("MAX_QUESTION_LABEL", 100),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
