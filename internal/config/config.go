package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 应用配置（启动时加载一次，之后只读）
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	Port        string

	// TMDB 图片地址拼接
	TMDBImageBaseURL string
	TMDBPosterSize   string
	TMDBBackdropSize string

	// 画像构建
	NeutralRatingWeight float64 // rating=3 的画像权重

	// 打分上下文
	ScoringContextLimit int // 取最近多少条评分参与上下文
	MaxScoringGenres    int
	MaxScoringKeywords  int

	// 负反馈惩罚
	DislikeWeight   float64
	DislikeMinCount int

	// 候选召回
	RerankFetchMultiplier int
	MaxFetchCandidates    int
	SimCandidatesK        int
	SimTopN               int
	SimRerankEnabled      bool

	// 热度分母上限
	VoteCountCap int64
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "tastekid")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := getEnv("DATABASE_URL", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL))

	appSecret := getEnv("APP_SECRET", "your-secret-key-change-in-production")
	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		Port:        getEnv("PORT", "5008"),

		TMDBImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/"),
		TMDBPosterSize:   getEnv("TMDB_POSTER_SIZE", "w342"),
		TMDBBackdropSize: getEnv("TMDB_BACKDROP_SIZE", "w780"),

		NeutralRatingWeight: getEnvFloat("NEUTRAL_RATING_WEIGHT", 0.2),

		ScoringContextLimit: getEnvInt("SCORING_CONTEXT_LIMIT", 50),
		MaxScoringGenres:    getEnvInt("MAX_SCORING_GENRES", 8),
		MaxScoringKeywords:  getEnvInt("MAX_SCORING_KEYWORDS", 20),

		DislikeWeight:   getEnvFloat("DISLIKE_WEIGHT", 0.35),
		DislikeMinCount: getEnvInt("DISLIKE_MIN_COUNT", 3),

		RerankFetchMultiplier: getEnvInt("RERANK_FETCH_MULTIPLIER", 5),
		MaxFetchCandidates:    getEnvInt("MAX_FETCH_CANDIDATES", 500),
		SimCandidatesK:        getEnvInt("SIM_CANDIDATES_K", 200),
		SimTopN:               getEnvInt("SIM_TOP_N", 20),
		SimRerankEnabled:      getEnvBool("SIM_RERANK_ENABLED", true),

		VoteCountCap: int64(getEnvInt("VOTE_COUNT_CAP", 100000)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return defaultValue
}
