package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server       ServerConfig
	MongoDB      MongoConfig
	Database     DatabaseConfig
	Firebase     FirebaseConfig
	Email        EmailConfig
	AI           AIConfig
	Notification NotificationConfig

	JWTSecret string
}

// ServerConfig contains the HTTP/websocket server settings.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	Environment  string // development, staging, production
	FrontendURL  string
}

// MongoConfig is the document store holding users, ideas, notifications and
// chat threads/messages.
type MongoConfig struct {
	URI      string
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DatabaseConfig is the MySQL instance backing the device-token registry.
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	DatabaseName string
	MaxOpenConns int
	MaxIdleConns int
}

// FirebaseConfig configures Cloud Messaging for the push delivery leg.
type FirebaseConfig struct {
	ProjectID           string
	CredentialsFilePath string
	Enabled             bool
}

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Enabled   bool
}

// AIConfig points at an OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Enabled bool
}

// NotificationConfig tunes the fan-out pipeline.
type NotificationConfig struct {
	DeliveryTimeout int // seconds, per external call on a delivery leg
	Enabled         bool
}

// LoadConfig reads everything from the environment with development
// defaults. main loads .env via godotenv before calling this.
func LoadConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnv("ENVIRONMENT", "development"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		MongoDB: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			Username: getEnv("MONGO_USERNAME", ""),
			Password: getEnv("MONGO_PASSWORD", ""),
			Database: getEnv("MONGO_DATABASE", "innovatefund"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("MYSQL_HOST", "localhost"),
			Port:         getEnv("MYSQL_PORT", "3306"),
			Username:     getEnv("MYSQL_USERNAME", "innovatefund"),
			Password:     getEnv("MYSQL_PASSWORD", ""),
			DatabaseName: getEnv("MYSQL_DATABASE", "innovatefund"),
			MaxOpenConns: getEnvInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		Firebase: FirebaseConfig{
			ProjectID:           getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFilePath: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			Enabled:             getEnvBool("FIREBASE_ENABLED", false),
		},
		Email: EmailConfig{
			SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:  getEnvInt("SMTP_PORT", 587),
			Username:  getEnv("EMAIL_USER", ""),
			Password:  getEnv("EMAIL_PASSWORD", ""),
			FromEmail: getEnv("EMAIL_FROM", "no-reply@innovatefund.io"),
			FromName:  getEnv("EMAIL_FROM_NAME", "InnovateFund"),
			Enabled:   getEnvBool("EMAIL_ENABLED", false),
		},
		AI: AIConfig{
			BaseURL: getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("AI_API_KEY", ""),
			Model:   getEnv("AI_MODEL", "gpt-4o-mini"),
			Enabled: getEnvBool("AI_ENABLED", false),
		},
		Notification: NotificationConfig{
			DeliveryTimeout: getEnvInt("NOTIFICATION_DELIVERY_TIMEOUT", 10),
			Enabled:         getEnvBool("NOTIFICATION_ENABLED", true),
		},
		JWTSecret: getEnv("JWT_SECRET", "fallback_secret"),
	}

	if !cfg.Email.Enabled && cfg.Email.Username != "" && cfg.Email.Password != "" {
		cfg.Email.Enabled = true
	}
	if !cfg.Firebase.Enabled && cfg.Firebase.CredentialsFilePath != "" {
		cfg.Firebase.Enabled = true
	}
	if !cfg.AI.Enabled && cfg.AI.APIKey != "" {
		cfg.AI.Enabled = true
	}

	return cfg
}

// MongoURI builds the connection string unless MONGO_URI overrides it.
func (c *Config) MongoURI() string {
	if c.MongoDB.URI != "" {
		return c.MongoDB.URI
	}
	if c.MongoDB.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s",
			c.MongoDB.Username, c.MongoDB.Password, c.MongoDB.Host, c.MongoDB.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s", c.MongoDB.Host, c.MongoDB.Port)
}

// DSN builds the MySQL connection string for the device-token registry.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DatabaseName,
	)
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
