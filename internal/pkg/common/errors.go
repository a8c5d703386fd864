package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示使用者輸入錯誤，訊息可以直接顯示給使用者
type ValidationError struct {
	Field   string
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// Is 讓 errors.Is 以欄位比對預定義的驗證錯誤
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.message == t.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義驗證錯誤
var (
	ErrInvalidInput    = NewValidationError("text", "Please provide a valid description of how you're feeling")
	ErrInvalidCategory = NewValidationError("category", "Invalid drink type selected")
	ErrInvalidWeather  = NewValidationError("weather", "Weather must be one of cold, hot or rainy")
	ErrInvalidLocation = NewValidationError("location", "Latitude and longitude must both be provided and within range")
	ErrInvalidUserID   = NewValidationError("user_id", "Please provide a valid user id")
)

// CollaboratorKind 外部服務失敗的分類
type CollaboratorKind string

const (
	KindTimeout     CollaboratorKind = "timeout"     // 逾時
	KindUnreachable CollaboratorKind = "unreachable" // 連線失敗
	KindStatus      CollaboratorKind = "status"      // 非 2xx 回應
	KindMalformed   CollaboratorKind = "malformed"   // 回應內容無法解析
	KindDeclined    CollaboratorKind = "declined"    // 服務可連線但未產生可用內容
	KindConfig      CollaboratorKind = "config"      // 缺少金鑰等設定
)

// CollaboratorError 外部服務（文字生成、天氣、地圖、影片）呼叫失敗
type CollaboratorError struct {
	Collaborator string
	Kind         CollaboratorKind
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Collaborator, e.Kind)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Reachable 服務有回應（只是拒絕或內容不可用）時回傳 true
func (e *CollaboratorError) Reachable() bool {
	switch e.Kind {
	case KindStatus, KindMalformed, KindDeclined:
		return true
	default:
		return false
	}
}

// NewCollaboratorError 創建外部服務錯誤，逾時會自動歸類
func NewCollaboratorError(collaborator string, kind CollaboratorKind, err error) *CollaboratorError {
	if kind == KindUnreachable && errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &CollaboratorError{
		Collaborator: collaborator,
		Kind:         kind,
		Err:          err,
	}
}

// NewConfigError 缺少設定時的外部服務錯誤
func NewConfigError(collaborator, missing string) *CollaboratorError {
	return &CollaboratorError{
		Collaborator: collaborator,
		Kind:         KindConfig,
		Err:          fmt.Errorf("%s is not configured", missing),
	}
}

// AsCollaboratorError 取出外部服務錯誤
func AsCollaboratorError(err error) (*CollaboratorError, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConfigError 檢查是否為設定錯誤
func IsConfigError(err error) bool {
	ce, ok := AsCollaboratorError(err)
	return ok && ce.Kind == KindConfig
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429
	ErrCodeValidationFailed = "VALIDATION_FAILED"  // 400

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest     = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrNotFound           = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests    = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)
)
