package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisEventDB  int    `mapstructure:"REDIS_EVENT_DB"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTaskDB   int    `mapstructure:"REDIS_TASK_DB"`

	// Gemini API key for the AI-assisted analysis paths.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Firebase service account for FCM pushes.
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`

	// Fulfillment workflow tunables.
	WorkflowResponseTimeoutMin  int `mapstructure:"WORKFLOW_RESPONSE_TIMEOUT_MIN"`
	WorkflowCheckIntervalMin    int `mapstructure:"WORKFLOW_CHECK_INTERVAL_MIN"`
	WorkflowMinResponses        int `mapstructure:"WORKFLOW_MIN_RESPONSES"`
	WorkflowMinProviders        int `mapstructure:"WORKFLOW_MIN_PROVIDERS"`
	WorkflowMaxProviders        int `mapstructure:"WORKFLOW_MAX_PROVIDERS"`
	WorkflowSelectionTimeoutMin int `mapstructure:"WORKFLOW_SELECTION_TIMEOUT_MIN"`
	WorkflowRetryAttempts       int `mapstructure:"WORKFLOW_RETRY_ATTEMPTS"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_EVENT_DB", 0)
	viper.SetDefault("REDIS_CACHE_DB", 1)
	viper.SetDefault("REDIS_TASK_DB", 2)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_PATH", "serviceAccountKey.json")
	viper.SetDefault("WORKFLOW_RESPONSE_TIMEOUT_MIN", 60)
	viper.SetDefault("WORKFLOW_CHECK_INTERVAL_MIN", 10)
	viper.SetDefault("WORKFLOW_MIN_RESPONSES", 2)
	viper.SetDefault("WORKFLOW_MIN_PROVIDERS", 1)
	viper.SetDefault("WORKFLOW_MAX_PROVIDERS", 20)
	viper.SetDefault("WORKFLOW_SELECTION_TIMEOUT_MIN", 120)
	viper.SetDefault("WORKFLOW_RETRY_ATTEMPTS", 5)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
