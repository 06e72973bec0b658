package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"patentcheck/internal/intake"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	ConnectTimeoutSec  int
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// IntakeConfig holds the upload acceptance policy.
type IntakeConfig struct {
	MaxUploadBytes int64
	AllowedTypes   []string
}

// AnalysisConfig controls the analysis runner and the simulated engine.
type AnalysisConfig struct {
	Workers             int
	QueueSize           int
	DelayMs             int
	TimeoutSec          int
	SubmitRate          float64
	SubmitBurst         int
	AIThreshold         int
	PlagiarismThreshold int
	GrammarThreshold    int
	FormatThreshold     int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	LogLevel string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Intake   IntakeConfig
	Analysis AnalysisConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ConnectTimeoutSec:  getEnvInt("DB_CONNECT_TIMEOUT_SEC", 5),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Intake: IntakeConfig{
			MaxUploadBytes: getEnvInt64("INTAKE_MAX_UPLOAD_BYTES", intake.MaxDocumentSize),
			AllowedTypes:   getEnvList("INTAKE_ALLOWED_TYPES", intake.DefaultAllowedTypes),
		},
		Analysis: AnalysisConfig{
			Workers:             getEnvInt("ANALYSIS_WORKERS", 4),
			QueueSize:           getEnvInt("ANALYSIS_QUEUE_SIZE", 64),
			DelayMs:             getEnvInt("ANALYSIS_DELAY_MS", 3000),
			TimeoutSec:          getEnvInt("ANALYSIS_TIMEOUT_SEC", 60),
			SubmitRate:          getEnvFloat("ANALYSIS_SUBMIT_RATE", 5),
			SubmitBurst:         getEnvInt("ANALYSIS_SUBMIT_BURST", 20),
			AIThreshold:         getEnvInt("ANALYSIS_AI_THRESHOLD", 85),
			PlagiarismThreshold: getEnvInt("ANALYSIS_PLAGIARISM_THRESHOLD", 75),
			GrammarThreshold:    getEnvInt("ANALYSIS_GRAMMAR_THRESHOLD", 80),
			FormatThreshold:     getEnvInt("ANALYSIS_FORMAT_THRESHOLD", 80),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Gate builds the intake gate for the configured policy.
func (c IntakeConfig) Gate() *intake.Gate {
	return intake.NewGate(c.AllowedTypes, c.MaxUploadBytes)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
