package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Ai         AIConfig
	Retrieval  RetrievalConfig
	Rerank     RerankConfig
	Dispatcher DispatcherConfig
	Lifecycle  LifecycleConfig
	Brief      BriefConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	StorageDriver      string // "postgres" or "memory"
	BriefTopic         string
	KnowledgeTopic     string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OpenAIKey         string
	OpenAIBaseURL     string
}

type RetrievalConfig struct {
	InternalTimeout     time.Duration
	ExternalTimeout     time.Duration
	MaxAttempts         int
	PerSourceLimit      int
	SimilarityThreshold float64
	WebSearchURL        string
	WebSearchKey        string
	WebSearchRPS        float64
}

// RerankConfig can be overlaid from RERANK_CONFIG_FILE.
type RerankConfig struct {
	WeightSource        float64 `yaml:"weight_source"`
	WeightSimilarity    float64 `yaml:"weight_similarity"`
	WeightRecency       float64 `yaml:"weight_recency"`
	TrustInternal       float64 `yaml:"trust_internal"`
	TrustExternal       float64 `yaml:"trust_external"`
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days"`
	Budget              int     `yaml:"budget"`
	DuplicateThreshold  float64 `yaml:"duplicate_threshold"`
}

type DispatcherConfig struct {
	MaxTurns     int
	ModelTimeout time.Duration
	ToolTimeout  time.Duration
}

type LifecycleConfig struct {
	MaxCorrections int
	HistoryLimit   int
	SessionTTL     time.Duration
}

type BriefConfig struct {
	Audiences      []string
	OutputDir      string
	LockTTL        time.Duration
	WaitTimeout    time.Duration
	RenderTimeout  time.Duration
	PlannerEmail   string
	ManagerEmail   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/reasoning.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			StorageDriver:      getEnv("STORAGE_DRIVER", "postgres"),
			BriefTopic:         getEnv("BRIEF_REQUEST_TOPIC_NAME", "GENERATE_CASE_BRIEFS"),
			KnowledgeTopic:     getEnv("EMBED_KNOWLEDGE_TOPIC_NAME", "EMBED_KNOWLEDGE_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Case Briefs"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		},
		Retrieval: RetrievalConfig{
			InternalTimeout:     getEnvAsDuration("RETRIEVAL_INTERNAL_TIMEOUT", 5*time.Second),
			ExternalTimeout:     getEnvAsDuration("RETRIEVAL_EXTERNAL_TIMEOUT", 8*time.Second),
			MaxAttempts:         getEnvAsInt("RETRIEVAL_MAX_ATTEMPTS", 3),
			PerSourceLimit:      getEnvAsInt("RETRIEVAL_PER_SOURCE_LIMIT", 10),
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.3),
			WebSearchURL:        getEnv("WEB_SEARCH_URL", ""),
			WebSearchKey:        getEnv("WEB_SEARCH_API_KEY", ""),
			WebSearchRPS:        getEnvAsFloat("WEB_SEARCH_RPS", 2),
		},
		Rerank: RerankConfig{
			WeightSource:        getEnvAsFloat("RERANK_WEIGHT_SOURCE", 0.3),
			WeightSimilarity:    getEnvAsFloat("RERANK_WEIGHT_SIMILARITY", 0.5),
			WeightRecency:       getEnvAsFloat("RERANK_WEIGHT_RECENCY", 0.2),
			TrustInternal:       getEnvAsFloat("RERANK_TRUST_INTERNAL", 1.0),
			TrustExternal:       getEnvAsFloat("RERANK_TRUST_EXTERNAL", 0.8),
			RecencyHalfLifeDays: getEnvAsFloat("RERANK_RECENCY_HALF_LIFE_DAYS", 30),
			Budget:              getEnvAsInt("RERANK_BUDGET", 8),
			DuplicateThreshold:  getEnvAsFloat("RERANK_DUPLICATE_THRESHOLD", 0.85),
		},
		Dispatcher: DispatcherConfig{
			MaxTurns:     getEnvAsInt("DISPATCHER_MAX_TURNS", 6),
			ModelTimeout: getEnvAsDuration("DISPATCHER_MODEL_TIMEOUT", 60*time.Second),
			ToolTimeout:  getEnvAsDuration("DISPATCHER_TOOL_TIMEOUT", 15*time.Second),
		},
		Lifecycle: LifecycleConfig{
			MaxCorrections: getEnvAsInt("LIFECYCLE_MAX_CORRECTIONS", 3),
			HistoryLimit:   getEnvAsInt("LIFECYCLE_HISTORY_LIMIT", 5),
			SessionTTL:     getEnvAsDuration("LIFECYCLE_SESSION_TTL", 24*time.Hour),
		},
		Brief: BriefConfig{
			Audiences:     getEnvAsList("BRIEF_AUDIENCES", []string{"planner", "manager"}),
			OutputDir:     getEnv("BRIEF_OUTPUT_DIR", "briefs"),
			LockTTL:       getEnvAsDuration("BRIEF_LOCK_TTL", 2*time.Minute),
			WaitTimeout:   getEnvAsDuration("BRIEF_WAIT_TIMEOUT", 30*time.Second),
			RenderTimeout: getEnvAsDuration("BRIEF_RENDER_TIMEOUT", 30*time.Second),
			PlannerEmail:  getEnv("BRIEF_PLANNER_EMAIL", ""),
			ManagerEmail:  getEnv("BRIEF_MANAGER_EMAIL", ""),
		},
	}

	if path := getEnv("RERANK_CONFIG_FILE", ""); path != "" {
		if err := cfg.Rerank.Overlay(path); err != nil {
			log.Printf("Warning: rerank overlay %s ignored: %v", path, err)
		}
	}

	return cfg
}

// Overlay replaces any weight present in the YAML file at path.
func (r *RerankConfig) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	overlay := *r
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if overlay.WeightSource < 0 || overlay.WeightSimilarity < 0 || overlay.WeightRecency < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	*r = overlay
	return nil
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
