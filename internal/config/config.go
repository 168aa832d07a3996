package config

import (
	"os"
	"strconv"
	"strings"

	"parking-detector-go/internal/database"
	"parking-detector-go/internal/events"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		GRPCPort    int
		Environment string
	}
	DetectorAPI struct {
		BaseURL string
		Timeout int // в секундах
	}
	Database database.Config
	Admin    struct {
		APIKey string
	}
	Parking struct {
		MaxFramesPerSession     int
		BestFramesDir           string
		DefaultMinSpaceWidth    float64
		DefaultSpaceCoefficient float64
		MaxParkingRows          int
	}
	Kafka struct {
		Enabled bool
		events.KafkaConfig
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из .env (если есть) и переменных окружения
func LoadConfig() *Config {
	// Переменные окружения имеют приоритет над .env
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.GRPCPort = getEnvInt("GRPC_PORT", 9090)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация сервиса детекции
	cfg.DetectorAPI.BaseURL = getEnv("DETECTOR_API_BASE_URL", "http://localhost:8000")
	cfg.DetectorAPI.Timeout = getEnvInt("DETECTOR_API_TIMEOUT_SECONDS", 60)

	// Конфигурация базы данных
	cfg.Database = database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		Database: getEnv("DB_NAME", "parking_detector"),
		Username: getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres123"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	cfg.Admin.APIKey = getEnv("ADMIN_API_KEY", "")

	// Параметры парковки
	cfg.Parking.MaxFramesPerSession = getEnvInt("MAX_FRAMES_PER_SESSION", 10)
	cfg.Parking.BestFramesDir = getEnv("BEST_FRAMES_DIR", "uploads/best_frames")
	cfg.Parking.DefaultMinSpaceWidth = getEnvFloat("DEFAULT_MIN_SPACE_WIDTH", 150)
	cfg.Parking.DefaultSpaceCoefficient = getEnvFloat("DEFAULT_SPACE_COEFFICIENT", 0.8)
	cfg.Parking.MaxParkingRows = getEnvInt("MAX_PARKING_ROWS", 10)

	// Публикация событий
	cfg.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", false)
	cfg.Kafka.BootstrapServers = getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "parking-analysis")
	cfg.Kafka.Acks = getEnv("KAFKA_ACKS", "all")
	cfg.Kafka.CompressionType = getEnv("KAFKA_COMPRESSION_TYPE", "snappy")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool получает bool значение переменной окружения или возвращает значение по умолчанию
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
