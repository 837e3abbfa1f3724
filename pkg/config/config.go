package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	GigaChat   GigaChatConfig
	Embedding  EmbeddingConfig
	Knowledge  KnowledgeConfig
	Compliance ComplianceConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json or console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

// AdminConfig guards the regeneration endpoint. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
	Model              string
	BaseURL            string
	OAuthURL           string
	Timeout            time.Duration
}

type EmbeddingConfig struct {
	Provider   string // gigachat or local
	Model      string
	Dimensions int // local provider only
	Workers    int // 0 means NumCPU-1
	BatchSize  int
	BatchDelay time.Duration
	MaxRetries int
}

type KnowledgeConfig struct {
	SourcePath       string
	CacheBackend     string // file or postgres
	CacheDir         string
	PassageMaxLen    int
	ExtractChunkSize int
	TopK             int
}

type ComplianceConfig struct {
	PolicyTableFile string
	Policy          PolicyTable
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	gigaTimeout, _ := strconv.Atoi(getEnv("GIGACHAT_TIMEOUT_SECONDS", "60"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	embedDims, _ := strconv.Atoi(getEnv("EMBEDDING_DIMENSIONS", "256"))
	embedWorkers, _ := strconv.Atoi(getEnv("EMBEDDING_WORKERS", "0"))
	embedBatch, _ := strconv.Atoi(getEnv("EMBEDDING_BATCH_SIZE", "10"))
	embedDelay, _ := strconv.Atoi(getEnv("EMBEDDING_BATCH_DELAY_MS", "1000"))
	embedRetries, _ := strconv.Atoi(getEnv("EMBEDDING_MAX_RETRIES", "3"))

	passageMaxLen, _ := strconv.Atoi(getEnv("PASSAGE_MAX_LEN", "1000"))
	extractChunk, _ := strconv.Atoi(getEnv("EXTRACT_CHUNK_SIZE", "4000"))
	topK, _ := strconv.Atoi(getEnv("RAG_TOP_K", "5"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "4"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "hs_compliance"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(maxConns),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			BaseURL:            getEnv("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
			OAuthURL:           getEnv("GIGACHAT_OAUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
			Timeout:            time.Duration(gigaTimeout) * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:   getEnv("EMBEDDING_PROVIDER", "gigachat"),
			Model:      getEnv("EMBEDDING_MODEL", "Embeddings"),
			Dimensions: embedDims,
			Workers:    embedWorkers,
			BatchSize:  embedBatch,
			BatchDelay: time.Duration(embedDelay) * time.Millisecond,
			MaxRetries: embedRetries,
		},
		Knowledge: KnowledgeConfig{
			SourcePath:       getEnv("KNOWLEDGE_SOURCE_PATH", "data/tariff_schedule.pdf"),
			CacheBackend:     getEnv("CACHE_BACKEND", "file"),
			CacheDir:         getEnv("CACHE_DIR", "data/cache"),
			PassageMaxLen:    passageMaxLen,
			ExtractChunkSize: extractChunk,
			TopK:             topK,
		},
		Compliance: ComplianceConfig{
			PolicyTableFile: getEnv("POLICY_TABLE_FILE", ""),
			Policy:          DefaultPolicyTable(),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Compliance.PolicyTableFile != "" {
		table, err := LoadPolicyTable(cfg.Compliance.PolicyTableFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy table: %w", err)
		}
		cfg.Compliance.Policy = table
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
