package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"harvest_hub_v2_202601/internal/apperr"
)

// ==================== 错误响应映射 ====================

// kind -> HTTP 状态码
var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindAuthorization: http.StatusForbidden,
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindUpload:        http.StatusBadGateway,
	apperr.KindInternal:      http.StatusInternalServerError,
}

// respondError 统一错误出口：只暴露错误码与 message，不泄漏内部细节
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "服务内部错误"
	var e *apperr.Error
	if errors.As(err, &e) && kind != apperr.KindInternal {
		message = e.Message
	}

	c.JSON(status, gin.H{
		"code":    status,
		"error":   apperr.CodeOf(err),
		"message": message,
	})
}
