package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=sekolah port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	RedisAddr      string        // kosong = cache laporan nonaktif
	ReportCacheTTL time.Duration // TTL cache laporan
	Location       *time.Location
	SeedClasses    bool     // seed kelas saat server start
	ClassSections  []string // huruf rombel per tingkat (A,B,...)
}

// Load reads .env (if present) and the process environment. The server
// refuses to start without a usable JWT secret.
func Load() *Config {
	cfg := LoadWithoutAuth()

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET tidak diset")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET minimal 32 karakter")
	}
	if cfg.RedisAddr == "" {
		log.Println("[WARN] REDIS_ADDR tidak diset, cache laporan dinonaktifkan.")
	}
	return cfg
}

// LoadWithoutAuth is Load for the admin CLI, which never issues tokens.
func LoadWithoutAuth() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env tidak dapat dibaca: %v", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		ReportCacheTTL: getDuration("REPORT_CACHE_TTL", 10*time.Minute),
		Location:       loadLocation(getEnv("TIMEZONE", "Asia/Jakarta")),
		SeedClasses:    getBool("SEED_CLASSES", false),
		ClassSections:  splitList(getEnv("CLASS_SECTIONS", "A,B,C,D,E,F")),
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN memakai nilai default, set DSN Postgres sendiri untuk production.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q bukan boolean, memakai %v", key, v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[WARN] %s=%q bukan durasi yang valid, memakai %s", key, v, def)
		return def
	}
	return d
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[WARN] zona waktu %q tidak dikenal, memakai UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
