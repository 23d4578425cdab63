package config

import (
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// MustInit загружает .env и config.yaml. Отсутствие .env не ошибка:
// в контейнере окружение задаёт оркестратор.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		log.WithError(err).Debug(".env file not loaded")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/food-oms")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("FOODOMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic("error while reading config file: " + err.Error())
		}
		log.Warn("config file not found, using defaults and environment")
	}
}

func setDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.metrics.addr", ":9090")

	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.postgres.dsn", "")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", "")

	viper.SetDefault("availability.base_url", "http://localhost:8081")
	viper.SetDefault("availability.timeout", "5s")
	viper.SetDefault("availability.cache_ttl", "30s")

	viper.SetDefault("payment.failure_rate", 0.1)
	viper.SetDefault("payment.latency", "50ms")

	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Content-Type", "X-Customer-Id", "Idempotency-Key"})
	viper.SetDefault("server.http.cors.max_age", 300)
}
