package apperr

import (
	"errors"
	"fmt"
)

// ==================== 错误分类 ====================

// Kind 错误大类，决定对外暴露的 HTTP 状态
type Kind string

const (
	KindValidation    Kind = "validation"    // 参数/业务规则校验失败
	KindAuthorization Kind = "authorization" // 角色无权执行该操作
	KindNotFound      Kind = "not_found"     // 资源不存在
	KindConflict      Kind = "conflict"      // 幂等冲突（重复裁决等）
	KindUpload        Kind = "upload"        // 对象存储上传失败
	KindInternal      Kind = "internal"      // 存储/未知错误，细节不外泄
)

// ==================== 错误码 ====================

// 机器可读错误码，前端和测试都按这个匹配
const (
	CodeMissingField           = "MissingField"
	CodeSaleStartNotFuture     = "SaleStartNotFuture"
	CodeSaleEndBeforeStart     = "SaleEndBeforeStart"
	CodeSaleDurationOutOfRange = "SaleDurationOutOfRange"
	CodeBidWindowOutsideSale   = "BidWindowOutsideSaleWindow"
	CodeBidDurationOutOfRange  = "BidDurationOutOfRange"
	CodeImageCountInvalid      = "ImageCountInvalid"
	CodeImageTypeInvalid       = "ImageTypeInvalid"
	CodeMissingRejectionReason = "MissingRejectionReason"
	CodeInvalidAction          = "InvalidAction"
	CodeForbidden              = "Forbidden"
	CodeListingNotFound        = "ListingNotFound"
	CodeUserNotFound           = "UserNotFound"
	CodeEmailTaken             = "EmailTaken"
	CodeAlreadyDecided         = "AlreadyDecided"
	CodeUploadFailed           = "UploadFailed"
	CodeInternal               = "InternalError"
)

// ==================== Error 定义 ====================

// Error 带分类和错误码的业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// ==================== 构造函数 ====================

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Upload(message string, cause error) *Error {
	return &Error{Kind: KindUpload, Code: CodeUploadFailed, Message: message, cause: cause}
}

// Internal 包装底层错误，对外只展示 message，cause 仅用于日志
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, cause: cause}
}

// ==================== 查询辅助 ====================

// KindOf 提取错误分类，非业务错误一律按 internal 处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf 提取错误码
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
