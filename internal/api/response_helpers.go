// internal/api/response_helpers.go
package api

import (
	"net/http"

	apperrors "github.com/Corphon/DocSummarizer/internal/errors"
	"github.com/gin-gonic/gin"
)

// ResponseHelper 响应助手类
// 分析层的失败不在这里出现：能力调用失败一律折叠进200响应的诊断字段，
// 只有请求本身不合法（400/415）才走错误响应
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Ok 成功响应，原样输出数据对象以保持线上契约稳定
func (rh *ResponseHelper) Ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// UnsupportedMedia 415错误响应
func (rh *ResponseHelper) UnsupportedMedia(c *gin.Context, message string) {
	c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": message})
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// FromError 按错误类型选择状态码：校验错误400、媒体类型错误415，其余500
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidationError(err):
		rh.BadRequest(c, err.Error())
	case apperrors.IsUnsupportedMediaError(err):
		rh.UnsupportedMedia(c, err.Error())
	default:
		rh.InternalError(c, err.Error())
	}
}
