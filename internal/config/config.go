package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=DEBUG INFO WARN ERROR"`

	LineChannelSecret      string `validate:"required"`
	LineChannelAccessToken string `validate:"required"`

	IntentBackend       string `validate:"oneof=relay dialogflow"`
	DialogflowAgentID   string
	DialogflowRelayURL  string `validate:"omitempty,url"`
	DialogflowProjectID string `validate:"required_if=IntentBackend dialogflow"`
	DialogflowLanguage  string

	StoreBackend       string `validate:"oneof=firestore sqlite redis"`
	FirestoreProjectID string `validate:"required_if=StoreBackend firestore"`
	CredentialsFile    string
	DatabaseURL        string `validate:"required_if=StoreBackend sqlite"`
	RedisAddr          string `validate:"required_if=StoreBackend redis"`

	TracingEnabled bool
}

const relayBaseURL = "https://dialogflow.cloud.google.com/v1/integrations/line/webhook/"

var validate = validator.New()

// Load reads the environment (and a .env file if present) and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),

		IntentBackend:       getEnv("INTENT_BACKEND", "relay"),
		DialogflowAgentID:   getEnv("DIALOGFLOW_AGENT_ID", ""),
		DialogflowRelayURL:  getEnv("DIALOGFLOW_RELAY_URL", ""),
		DialogflowProjectID: getEnv("DIALOGFLOW_PROJECT_ID", ""),
		DialogflowLanguage:  getEnv("DIALOGFLOW_LANGUAGE", "th"),

		StoreBackend:       getEnv("STORE_BACKEND", "firestore"),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", getEnv("DIALOGFLOW_PROJECT_ID", "")),
		CredentialsFile:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", "members.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),

		TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IntentBackend == "relay" && cfg.RelayURL() == "" {
		return Config{}, fmt.Errorf("invalid configuration: DIALOGFLOW_AGENT_ID or DIALOGFLOW_RELAY_URL is required for the relay backend")
	}
	return cfg, nil
}

// RelayURL is the Dialogflow LINE integration endpoint. An explicit URL wins over the agent id.
func (c Config) RelayURL() string {
	if c.DialogflowRelayURL != "" {
		return c.DialogflowRelayURL
	}
	if c.DialogflowAgentID == "" {
		return ""
	}
	return relayBaseURL + c.DialogflowAgentID
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
