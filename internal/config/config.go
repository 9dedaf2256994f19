// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// 文档分析超时边界
const (
	// DefaultAnalyzeTimeout 文档分析调用的默认超时
	DefaultAnalyzeTimeout = 45 * time.Second
	// MaxAnalyzeTimeout 调用方可配置的超时上限（硬顶）
	MaxAnalyzeTimeout = 180 * time.Second
)

// Config 存储应用配置
// 启动时从环境变量读取一次，此后只读；不存在任何运行期可变配置
type Config struct {
	Port      string
	LogDir    string
	DebugMode bool

	// Azure AI Language（语言检测/关键短语/抽取式摘要）
	LanguageEndpoint string
	LanguageKey      string

	// Azure Document Intelligence（文档OCR/版面分析）
	DocIntelEndpoint string
	DocIntelKey      string

	// 生成式摘要所用的LLM提供者
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string

	// 文档分析默认超时（可被请求参数覆盖，但不超过硬顶）
	AnalyzeTimeout time.Duration
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:             getEnv("PORT", "8080"),
		LogDir:           getEnv("LOG_DIR", "logs"),
		DebugMode:        getEnvBool("DEBUG_MODE", true),
		LanguageEndpoint: getEnv("AI_LANGUAGE_ENDPOINT", ""),
		LanguageKey:      getEnv("AI_LANGUAGE_KEY", ""),
		DocIntelEndpoint: getEnv("AI_DOCINTEL_ENDPOINT", ""),
		DocIntelKey:      getEnv("AI_DOCINTEL_KEY", ""),
		LLMProvider:      getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", ""),
		AnalyzeTimeout:   analyzeTimeoutFromEnv(),
	}

	// 能力端点缺失只警告不报错：对应的分析步骤会以部分失败的形式降级
	if config.LanguageEndpoint == "" {
		log.Println("警告: 未设置AI_LANGUAGE_ENDPOINT，语言检测/关键短语/抽取式摘要将不可用")
	}
	if config.DocIntelEndpoint == "" {
		log.Println("警告: 未设置AI_DOCINTEL_ENDPOINT，文档提取将回退为本地PDF解析")
	}
	if config.LLMAPIKey == "" {
		log.Println("警告: 未设置LLM_API_KEY，生成式摘要将不可用")
	}

	return config, nil
}

// ClampAnalyzeTimeout 把调用方请求的超时秒数限制在合法区间内
// 零值或负值返回配置的默认超时
func (c *Config) ClampAnalyzeTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return c.AnalyzeTimeout
	}
	d := time.Duration(seconds) * time.Second
	if d > MaxAnalyzeTimeout {
		return MaxAnalyzeTimeout
	}
	return d
}

func analyzeTimeoutFromEnv() time.Duration {
	seconds := getEnvInt("DI_TIMEOUT_SECONDS", 0)
	if seconds <= 0 {
		return DefaultAnalyzeTimeout
	}
	d := time.Duration(seconds) * time.Second
	if d > MaxAnalyzeTimeout {
		return MaxAnalyzeTimeout
	}
	return d
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt 获取整数类型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
