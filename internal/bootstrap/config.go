package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	redisstate "github.com/4sizn/animal-zoom-sub000/internal/infra/state/redis"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // Redis Key 前缀

	JWTSecret      string
	JWTExpiryHours int

	ServerPort        string
	LogLevel          string
	AppEnv            string // development / production
	CORSAllowedOrigin string

	RateLimitMax    int
	RateLimitWindow time.Duration

	RoomMaxParticipants int
	ChatHistoryLimit    int
	RoomIdleTimeout     time.Duration
	RoomSweepSchedule   string

	FanoutEnabled bool   // 通过 Redis Pub/Sub 跨进程广播
	NodeID        string // 本进程在 fanout 中的标识
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            envOr("DB_HOST", "127.0.0.1"),
		DBPort:            envOr("DB_PORT", "3306"),
		DBName:            os.Getenv("DB_NAME"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:         envOr("REDIS_KEY_PREFIX", redisstate.DefaultKeyPrefix),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ServerPort:        envOr("SERVER_PORT", "8080"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		AppEnv:            envOr("APP_ENV", "development"),
		CORSAllowedOrigin: envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		RoomSweepSchedule: envOr("ROOM_SWEEP_SCHEDULE", "@every 10m"),
		NodeID:            envOr("NODE_ID", uuid.NewString()),
	}

	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWTExpiryHours, err = envInt("JWT_EXPIRY_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = envInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = envDuration("RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	if cfg.RoomMaxParticipants, err = envInt("ROOM_MAX_PARTICIPANTS", domain.DefaultMaxParticipants); err != nil {
		return nil, err
	}
	if cfg.ChatHistoryLimit, err = envInt("CHAT_HISTORY_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.RoomIdleTimeout, err = envDuration("ROOM_IDLE_TIMEOUT", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FanoutEnabled, err = envBool("FANOUT_ENABLED", false); err != nil {
		return nil, err
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.DBName == "" || cfg.DBUser == "" {
		return nil, fmt.Errorf("environment variables DB_NAME and DB_USER must be set")
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return b, nil
}
