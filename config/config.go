package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// Projects
	ProjectsFile string
	PollInterval time.Duration

	// Artifacts
	ArtifactRoot string

	// AWS build agents
	AWSRegion         string
	AgentAMI          string
	AgentInstanceType string
	AgentUseSpot      bool
	AgentPoolMaxSize  int
	ScaleUpThreshold  int
	ScaleDownIdleTime time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost/ci_orchestrator?sslmode=disable"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		ProjectsFile:      getEnv("PROJECTS_FILE", "projects.yaml"),
		PollInterval:      getDuration("POLL_INTERVAL", 60*time.Second),
		ArtifactRoot:      getEnv("ARTIFACT_ROOT", "artifacts"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		AgentAMI:          getEnv("AGENT_AMI", ""),
		AgentInstanceType: getEnv("AGENT_INSTANCE_TYPE", "t3.large"),
		AgentUseSpot:      getBool("AGENT_USE_SPOT", true),
		AgentPoolMaxSize:  getInt("AGENT_POOL_MAX_SIZE", 4),
		ScaleUpThreshold:  getInt("SCALE_UP_THRESHOLD", 2),
		ScaleDownIdleTime: getDuration("SCALE_DOWN_IDLE_TIME", 10*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
