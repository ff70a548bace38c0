package utils

import (
	"net/http"
	"strings"
)

// DetectImageType 根据文件头嗅探 MIME 类型
// 声明类型不可信时以内容为准
func DetectImageType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}

// IsImage 判断上传文件是否为图片
// declared 为请求里声明的 Content-Type，与嗅探结果任一命中即通过
func IsImage(data []byte, declared string) bool {
	if len(data) == 0 {
		return false
	}
	if strings.HasPrefix(declared, "image/") {
		return true
	}
	return strings.HasPrefix(DetectImageType(data), "image/")
}
