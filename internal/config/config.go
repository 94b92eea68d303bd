// Package config loads runtime settings from app.env, the environment and .env.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogPretty      bool   `mapstructure:"LOG_PRETTY"`

	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTExpiry   time.Duration `mapstructure:"JWT_EXPIRY"`
	AdminAPIKey string        `mapstructure:"ADMIN_API_KEY"`

	TelegramBotToken    string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminChatID int64  `mapstructure:"TELEGRAM_ADMIN_CHAT_ID"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	SendBufferSize          int           `mapstructure:"SEND_BUFFER_SIZE"`
	SuspensionSweepInterval time.Duration `mapstructure:"SUSPENSION_SWEEP_INTERVAL"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"ALLOWED_ORIGINS":           "",
	"LOG_LEVEL":                 "info",
	"LOG_PRETTY":                false,
	"DATABASE_DSN":              "host=localhost user=user password=password dbname=wantok port=5432 sslmode=disable",
	"REDIS_ADDRESS":             "localhost:6379",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"JWT_SECRET":                "",
	"JWT_EXPIRY":                "72h",
	"ADMIN_API_KEY":             "",
	"TELEGRAM_BOT_TOKEN":        "",
	"TELEGRAM_ADMIN_CHAT_ID":    0,
	"KAFKA_BROKERS":             "",
	"KAFKA_TOPIC":               "chat-sessions",
	"SEND_BUFFER_SIZE":          256,
	"SUSPENSION_SWEEP_INTERVAL": SuspensionSweepDefault.String(),
}

// Load reads configuration from path/app.env and the environment.
// A missing app.env is not an error; a missing .env only means nothing extra is exported.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Brokers splits KafkaBrokers on commas, dropping blanks.
func (c Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
