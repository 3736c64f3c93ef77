package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorKind 错误分类，决定HTTP状态码
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindValidation  ErrorKind = "validation"
	KindRateLimit   ErrorKind = "rate_limit"
	KindProvider    ErrorKind = "provider"
	KindUnavailable ErrorKind = "unavailable"
	KindAlignment   ErrorKind = "alignment"
)

// APIError 在边界处统一转换为JSON错误响应
type APIError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func newAPIError(kind ErrorKind, message string, cause error) *APIError {
	return &APIError{Kind: kind, Message: message, Cause: cause}
}

// statusFor 错误类型到HTTP状态码
func statusFor(kind ErrorKind) int {
	switch kind {
	case KindAuth:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindProvider, KindAlignment:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorStatus 未分类的错误一律按500处理
func errorStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return statusFor(apiErr.Kind)
	}
	return http.StatusInternalServerError
}

// abortWithError 记录错误到gin上下文（供请求日志输出）并写出错误响应
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := gin.H{"error": "服务内部错误"}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		body["error"] = apiErr.Message
		if apiErr.Cause != nil {
			body["details"] = apiErr.Cause.Error()
		}
	}
	c.AbortWithStatusJSON(errorStatus(err), body)
}

// bindingError 把gin绑定错误转为可读的校验信息
func bindingError(err error) *APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("field %q failed on %q", fe.Field(), fe.Tag()))
		}
		return newAPIError(KindValidation, "参数格式错误", errors.New(strings.Join(fields, "; ")))
	}
	return newAPIError(KindValidation, "参数格式错误", err)
}
