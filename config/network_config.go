package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "network"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Neo4j
	Neo4jURL      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	// JWT
	JWTSecret string

	// Snowflake node id for event and history ids
	SnowflakeNode int64

	// Worker
	WorkerID        string
	WorkerMax       int
	WorkerQueueSize int
	WorkerTimeout   time.Duration

	// Consumer (Redis Stream)
	ConsumerBatchSize       int
	ConsumerBlockMS         int
	ConsumerMaxRetries      int
	ConsumerPendingCheckSec int

	// Recommendations
	RecommendationLimit    int
	RecommendationCacheTTL time.Duration
	CandidatePoolSize      int
	DismissalTTL           time.Duration

	// Feed
	FeedJobLimit       int
	FeedCommunityLimit int
	FeedTimeout        time.Duration

	// Write requests per user per minute; 0 disables limiting.
	RateLimitPerMinute int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "parttimepays"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Neo4j
		Neo4jURL:      getEnv("NEO4J_URL", ""),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		SnowflakeNode: int64(getEnvInt("SNOWFLAKE_NODE", 1)),

		// Worker
		WorkerID:        getEnv("WORKER_ID", generateWorkerID()),
		WorkerMax:       getEnvInt("WORKER_MAX", 8),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 500),
		WorkerTimeout:   getEnvDuration("WORKER_TIMEOUT", 30*time.Second),

		// Consumer
		ConsumerBatchSize:       getEnvInt("CONSUMER_BATCH_SIZE", 50),
		ConsumerBlockMS:         getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerMaxRetries:      getEnvInt("CONSUMER_MAX_RETRIES", 3),
		ConsumerPendingCheckSec: getEnvInt("CONSUMER_PENDING_CHECK_SEC", 60),

		// Recommendations
		RecommendationLimit:    getEnvInt("RECOMMENDATION_LIMIT", 10),
		RecommendationCacheTTL: time.Duration(getEnvInt("RECOMMENDATION_CACHE_TTL_MIN", 15)) * time.Minute,
		CandidatePoolSize:      getEnvInt("CANDIDATE_POOL_SIZE", 200),
		DismissalTTL:           time.Duration(getEnvInt("DISMISSAL_TTL_DAYS", 90)) * 24 * time.Hour,

		// Feed
		FeedJobLimit:       getEnvInt("FEED_JOB_LIMIT", 5),
		FeedCommunityLimit: getEnvInt("FEED_COMMUNITY_LIMIT", 5),
		FeedTimeout:        getEnvDuration("FEED_TIMEOUT", 3*time.Second),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the service misbehave silently.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", c.SnowflakeNode)
	}
	if c.RecommendationLimit < 1 {
		return fmt.Errorf("RECOMMENDATION_LIMIT must be positive, got %d", c.RecommendationLimit)
	}
	if c.DismissalTTL <= 0 {
		return fmt.Errorf("DISMISSAL_TTL_DAYS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
