package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"sipsync/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)

// RequestID 取得請求 ID，沒有時產生一個並寫回 header
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	id := common.GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// UserID 取得並驗證路徑上的使用者 ID
func UserID(c *gin.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if !userIDPattern.MatchString(id) {
		return "", common.ErrInvalidUserID
	}
	return id, nil
}

// ValidUserID 檢查使用者 ID 格式
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// RespondError 將錯誤轉為 JSON 回應；驗證錯誤回傳 400，其餘不暴露原始訊息
func RespondError(c *gin.Context, err error) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ve.Error(),
			"code":  common.ErrCodeValidationFailed,
			"field": ve.Field,
		})
		return
	}

	var ce *common.CustomError
	if errors.As(err, &ce) {
		c.JSON(ce.Status, gin.H{
			"error": ce.Message,
			"code":  ce.Code,
		})
		return
	}

	common.LogError("未預期的錯誤",
		zap.Error(err),
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": common.ErrInternalError.Message,
		"code":  common.ErrCodeInternalError,
	})
}

// RespondBadRequest 請求格式錯誤
func RespondBadRequest(c *gin.Context, err error) {
	common.LogWarn("請求格式無效",
		zap.Error(err),
		zap.String("request_id", RequestID(c)),
	)
	c.JSON(http.StatusBadRequest, gin.H{
		"error": common.ErrInvalidRequest.Message,
		"code":  common.ErrCodeInvalidRequest,
	})
}
