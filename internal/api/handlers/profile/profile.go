package profile

import (
	"net/http"
	"strings"

	"sipsync/internal/api/handlers"
	"sipsync/internal/core/history"
	"sipsync/internal/core/remedy"
	"sipsync/internal/core/translate"
	"sipsync/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 使用者紀錄、統計與偏好處理程序
type Handler struct {
	store history.Store
}

// NewHandler 創建處理程序
func NewHandler(store history.Store) *Handler {
	return &Handler{store: store}
}

// HandleHistory 使用者推薦紀錄
func (h *Handler) HandleHistory(c *gin.Context) {
	userID, entries, ok := h.readAll(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"entries": entries,
	})
}

// HandleStats 使用者統計
func (h *Handler) HandleStats(c *gin.Context) {
	userID, entries, ok := h.readAll(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"stats":   history.Summarize(entries),
	})
}

// HandleSuggestions 依紀錄給出常用推薦
func (h *Handler) HandleSuggestions(c *gin.Context) {
	userID, entries, ok := h.readAll(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"suggestions": history.Suggest(entries),
	})
}

// HandleGetPreferences 讀取偏好
func (h *Handler) HandleGetPreferences(c *gin.Context) {
	userID, err := handlers.UserID(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	prefs, err := h.store.LoadPreferences(c.Request.Context(), userID)
	if err != nil {
		h.unavailable(c, userID, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// HandlePutPreferences 更新偏好
func (h *Handler) HandlePutPreferences(c *gin.Context) {
	userID, err := handlers.UserID(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	var prefs history.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		handlers.RespondBadRequest(c, err)
		return
	}
	if err := normalizePreferences(&prefs); err != nil {
		handlers.RespondError(c, err)
		return
	}

	if err := h.store.SavePreferences(c.Request.Context(), userID, prefs); err != nil {
		h.unavailable(c, userID, err)
		return
	}

	common.LogInfo("偏好已更新", zap.String("user_id", userID))
	c.JSON(http.StatusOK, prefs)
}

// normalizePreferences 驗證並正規化偏好欄位
func normalizePreferences(prefs *history.Preferences) error {
	if strings.TrimSpace(prefs.Language) == "" {
		prefs.Language = "en"
	}
	code, ok := translate.Base(prefs.Language)
	if !ok {
		return common.NewValidationError("language", "Unsupported language")
	}
	prefs.Language = code

	if strings.TrimSpace(prefs.PreferredCategory) != "" {
		category, ok := remedy.ParseCategory(prefs.PreferredCategory)
		if !ok {
			return common.ErrInvalidCategory
		}
		prefs.PreferredCategory = string(category)
	}

	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = []string{}
	}
	return nil
}

func (h *Handler) readAll(c *gin.Context) (string, []history.Entry, bool) {
	userID, err := handlers.UserID(c)
	if err != nil {
		handlers.RespondError(c, err)
		return "", nil, false
	}

	entries, err := h.store.ReadAll(c.Request.Context(), userID)
	if err != nil {
		h.unavailable(c, userID, err)
		return "", nil, false
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return userID, entries, true
}

// unavailable 儲存層失敗時回傳 503
func (h *Handler) unavailable(c *gin.Context, userID string, err error) {
	common.LogError("使用者紀錄存取失敗",
		zap.Error(err),
		zap.String("user_id", userID),
		zap.String("request_id", handlers.RequestID(c)),
	)
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": common.ErrServiceUnavailable.Message,
		"code":  common.ErrCodeServiceUnavailable,
	})
}
