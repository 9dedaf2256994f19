// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/DocSummarizer/internal/api"
	"github.com/Corphon/DocSummarizer/internal/config"
	"github.com/Corphon/DocSummarizer/internal/di"
	"github.com/Corphon/DocSummarizer/internal/docintel"
	"github.com/Corphon/DocSummarizer/internal/llm"
	"github.com/Corphon/DocSummarizer/internal/nlp"
	"github.com/Corphon/DocSummarizer/internal/services"
	"github.com/Corphon/DocSummarizer/internal/utils"
	"github.com/gin-gonic/gin"

	// 注册内置提供者
	_ "github.com/Corphon/DocSummarizer/internal/llm/providers/anthropic"
	_ "github.com/Corphon/DocSummarizer/internal/llm/providers/openai"
	_ "github.com/Corphon/DocSummarizer/internal/nlp/providers/azurelang"
)

func main() {
	log.Println("🚀 启动 DocSummarizer 服务器...")

	// 1. 加载基础配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 基础配置加载完成，端口: %s", cfg.Port)

	// 2. 创建日志目录并初始化日志
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Fatalf("创建日志目录失败 %s: %v", cfg.LogDir, err)
	}
	logFile := filepath.Join(cfg.LogDir, time.Now().Format("2006-01-02")+".log")
	if err := utils.InitLogger(logFile); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}
	log.Println("✅ 日志系统初始化完成")

	// 3. 初始化所有服务并注册到依赖注入容器
	if err := initServices(cfg); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	container := di.GetContainer()
	log.Printf("✅ 所有服务初始化完成，服务数量: %d", len(container.GetNames()))

	// 4. 设置路由（只获取服务，不创建）
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("❌ 设置路由失败: %v", err)
	}
	log.Println("✅ 路由设置完成")

	// 5. 启动服务器
	log.Printf("🌐 服务器启动在端口 %s", cfg.Port)
	log.Printf("🔗 健康检查: http://localhost:%s/api/health", cfg.Port)

	setupGracefulShutdown(router, cfg.Port)
}

// initServices 按依赖顺序构建服务并注册到容器
func initServices(cfg *config.Config) error {
	container := di.GetContainer()
	container.Register("config", cfg)

	// 文本分析能力：未配置端点时提供者为nil，分析服务降级到本地回退
	var nlpProvider nlp.Provider
	if cfg.LanguageEndpoint != "" && cfg.LanguageKey != "" {
		provider, err := nlp.GetProvider("azurelang", map[string]string{
			"endpoint": cfg.LanguageEndpoint,
			"api_key":  cfg.LanguageKey,
		})
		if err != nil {
			return fmt.Errorf("初始化文本分析提供者失败: %w", err)
		}
		nlpProvider = provider
		log.Println("✅ 文本分析提供者就绪: azurelang")
	} else {
		log.Println("⚠️ 未配置文本分析端点，语言检测/关键词/抽取式摘要将走本地回退")
	}

	// 生成式摘要所用的LLM提供者
	var llmProvider llm.Provider
	if cfg.LLMProvider != "" && cfg.LLMAPIKey != "" {
		providerConfig := map[string]string{"api_key": cfg.LLMAPIKey}
		if cfg.LLMModel != "" {
			providerConfig["default_model"] = cfg.LLMModel
		}
		provider, err := llm.GetProvider(cfg.LLMProvider, providerConfig)
		if err != nil {
			return fmt.Errorf("初始化LLM提供者失败: %w", err)
		}
		llmProvider = provider
		log.Printf("✅ LLM提供者就绪: %s", provider.GetName())
	} else {
		log.Println("⚠️ 未配置LLM提供者，生成式摘要不可用")
	}

	// 文档分析：优先远端能力，未配置时回退到本地PDF解析
	var analyzer docintel.Analyzer
	if cfg.DocIntelEndpoint != "" && cfg.DocIntelKey != "" {
		analyzer = docintel.NewClient(cfg.DocIntelEndpoint, cfg.DocIntelKey)
		log.Println("✅ 文档分析客户端就绪")
	} else {
		analyzer = docintel.NewLocalPDFAnalyzer()
		log.Println("⚠️ 未配置文档分析端点，仅支持本地PDF文本提取")
	}

	progressService := services.NewProgressService()

	container.Register("analysis", services.NewAnalysisService(nlpProvider, llmProvider))
	container.Register("document", services.NewDocumentService(analyzer, cfg.AnalyzeTimeout))
	container.Register("progress", progressService)

	// 定期清理已完成任务的进度跟踪器
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			progressService.CleanupCompletedTasks(30 * time.Minute)
		}
	}()

	return nil
}

// setupGracefulShutdown 优雅关闭
func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ 启动服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ 服务器强制关闭: %v", err)
	}

	log.Println("✅ 服务器优雅关闭完成")
}
