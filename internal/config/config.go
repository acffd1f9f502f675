package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env              string
	AppSecret        string
	DatabaseURL      string
	JWTExpiry        time.Duration
	Port             string
	TMDBToken        string
	TMDBBaseURL      string
	TMDBLanguage     string
	SavedSkipCorrupt bool
}

// Load 加载配置
// 缺少必需的目录凭证时直接返回错误，启动阶段 fail fast，不允许带病运行
func Load() (*Config, error) {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "filmbox")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	tmdbToken := getEnv("TMDB_API_TOKEN", "")
	if tmdbToken == "" {
		return nil, fmt.Errorf("缺少必需配置 TMDB_API_TOKEN，无法访问电影目录")
	}

	skipCorrupt, err := strconv.ParseBool(getEnv("SAVED_SKIP_CORRUPT", "true"))
	if err != nil {
		return nil, fmt.Errorf("SAVED_SKIP_CORRUPT 配置无效: %w", err)
	}

	return &Config{
		Env:              getEnv("APP_ENV", "development"),
		AppSecret:        appSecret,
		DatabaseURL:      dbURL,
		JWTExpiry:        time.Duration(expiryHours) * time.Hour,
		Port:             getEnv("PORT", "5007"),
		TMDBToken:        tmdbToken,
		TMDBBaseURL:      getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage:     getEnv("TMDB_LANGUAGE", "zh-CN"),
		SavedSkipCorrupt: skipCorrupt,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
