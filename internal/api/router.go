// internal/api/router.go
package api

import (
	"fmt"

	"github.com/Corphon/DocSummarizer/internal/config"
	"github.com/Corphon/DocSummarizer/internal/di"
	"github.com/Corphon/DocSummarizer/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置HTTP路由
// 只从容器获取服务，不创建新实例
func SetupRouter() (*gin.Engine, error) {
	container := di.GetContainer()

	cfg, ok := container.Get("config").(*config.Config)
	if !ok {
		return nil, fmt.Errorf("配置未正确初始化")
	}

	analysisService, ok := container.Get("analysis").(*services.AnalysisService)
	if !ok {
		return nil, fmt.Errorf("文本分析服务未正确初始化")
	}

	documentService, ok := container.Get("document").(*services.DocumentService)
	if !ok {
		return nil, fmt.Errorf("文档服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	handler := NewHandler(analysisService, documentService, progressService, cfg)

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(metricsMiddleware())

	// 摘要端点：外部能力调用开销大，按IP限流
	summarize := r.Group("/summarize", SummarizeRateLimit())
	{
		summarize.POST("/text", handler.SummarizeText)
		summarize.POST("/document", handler.SummarizeDocument)
		summarize.POST("/abstractive", handler.SummarizeAbstractive)
	}

	r.GET("/api/health", handler.HealthCheck)
	r.GET("/ws/tasks/:taskID", handler.TaskProgressWebSocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}
