package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 从环境变量读取，构造一次后显式传给各组件
type Config struct {
	DBDriver    string // sqlite | postgres
	DatabaseURL string
	GormLog     string

	RedisAddr string
	RedisPwd  string

	Port      string
	WebOrigin string

	DataDir       string
	SeedEmployees bool

	LLM    LLMConfig
	Import ImportConfig
	S3     S3Config

	AskRatePerMinute int
}

type LLMConfig struct {
	URL             string
	CompletionsPath string
	ModelsPath      string
	Model           string
	Temperature     float64
	MaxTokens       int
	ProbeTimeout    time.Duration
	Timeout         time.Duration
	CacheTTL        time.Duration
}

type ImportConfig struct {
	Dir      string
	Pattern  string
	Encoding string
}

type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// LoadEnv loads .env when present; real env vars always win.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
}

func Load() Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		return v
	}
	getInt := func(k string, def int) int {
		if n, err := strconv.Atoi(get(k, "")); err == nil {
			return n
		}
		return def
	}
	getDur := func(k string, def time.Duration) time.Duration {
		v := get(k, "")
		if v == "" {
			return def
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// 纯数字按秒处理
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		return def
	}

	dataDir := get("DATA_DIR", "data")
	driver := strings.ToLower(get("DB_DRIVER", "sqlite"))

	temp := 0.1
	if f, err := strconv.ParseFloat(get("LLM_TEMPERATURE", ""), 64); err == nil {
		temp = f
	}

	return Config{
		DBDriver:    driver,
		DatabaseURL: get("DATABASE_URL", defaultDatabaseURL(driver, dataDir)),
		GormLog:     get("GORM_LOG", "warn"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),

		Port:      get("PORT", "3001"),
		WebOrigin: get("WEB_ORIGIN", "http://localhost:5173"),

		DataDir:       dataDir,
		SeedEmployees: !strings.EqualFold(get("SEED_EMPLOYEES", "true"), "false"),

		LLM: LLMConfig{
			URL:             strings.TrimRight(get("LLM_URL", "http://localhost:1234"), "/"),
			CompletionsPath: get("LLM_COMPLETIONS_PATH", "/v1/completions"),
			ModelsPath:      get("LLM_MODELS_PATH", "/v1/models"),
			Model:           os.Getenv("LLM_MODEL"),
			Temperature:     temp,
			MaxTokens:       getInt("LLM_MAX_TOKENS", 200),
			ProbeTimeout:    getDur("LLM_PROBE_TIMEOUT", 2*time.Second),
			Timeout:         getDur("LLM_TIMEOUT", 30*time.Second),
			CacheTTL:        getDur("LLM_CACHE_TTL", 10*time.Minute),
		},
		Import: ImportConfig{
			Dir:      get("IMPORT_DIR", filepath.Join(dataDir, "imports")),
			Pattern:  get("IMPORT_PATTERN", "**/*.csv"),
			Encoding: get("IMPORT_ENCODING", "utf-8"),
		},
		S3: S3Config{
			Region:    get("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("S3_PATH_STYLE"), "true"),
		},

		AskRatePerMinute: getInt("ASK_RATE_PER_MINUTE", 30),
	}
}

func defaultDatabaseURL(driver, dataDir string) string {
	if driver == "postgres" {
		// 兼容老的 DB_HOST/DB_USER 配置方式
		if os.Getenv("DB_HOST") == "" {
			return ""
		}
		return "host=" + os.Getenv("DB_HOST") +
			" user=" + os.Getenv("DB_USER") +
			" password=" + os.Getenv("DB_PASSWORD") +
			" dbname=" + os.Getenv("DB_NAME") +
			" port=" + os.Getenv("DB_PORT") +
			" sslmode=disable"
	}
	return filepath.Join(dataDir, "inventory.db")
}
