package recommendation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"sipsync/internal/api/handlers"
	"sipsync/internal/core/history"
	"sipsync/internal/core/recommend"
	"sipsync/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recommender 推薦服務
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// PreferenceLoader 讀取使用者偏好
type PreferenceLoader interface {
	LoadPreferences(ctx context.Context, userID string) (history.Preferences, error)
}

// Handler 推薦處理程序
type Handler struct {
	recommender Recommender
	preferences PreferenceLoader
}

// NewHandler 創建推薦處理程序；preferences 可為 nil
func NewHandler(r Recommender, preferences PreferenceLoader) *Handler {
	return &Handler{
		recommender: r,
		preferences: preferences,
	}
}

// HandleRecommend 依使用者描述產生推薦
//
// 三種結果狀態都回傳 200，由 status 欄位區分。
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := handlers.RequestID(c)
	start := time.Now()

	var req recommend.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, err)
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID != "" {
		if !handlers.ValidUserID(req.UserID) {
			handlers.RespondError(c, common.ErrInvalidUserID)
			return
		}
		h.applyPreferences(c.Request.Context(), &req)
	}

	common.LogInfo("開始處理推薦請求",
		zap.String("request_id", requestID),
		zap.String("category", req.Category),
		zap.Bool("has_location", req.Latitude != nil),
	)

	res, err := h.recommender.Recommend(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("推薦請求完成",
		zap.String("request_id", requestID),
		zap.String("status", string(res.Status)),
		zap.Duration("耗時", time.Since(start)),
	)
	c.JSON(http.StatusOK, res)
}

// applyPreferences 以使用者偏好補上未指定的類別與語言
func (h *Handler) applyPreferences(ctx context.Context, req *recommend.Request) {
	if h.preferences == nil {
		return
	}
	if strings.TrimSpace(req.Category) != "" && strings.TrimSpace(req.Language) != "" {
		return
	}

	prefs, err := h.preferences.LoadPreferences(ctx, req.UserID)
	if err != nil {
		common.LogWarn("偏好讀取失敗", zap.String("user_id", req.UserID), zap.Error(err))
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		req.Category = prefs.PreferredCategory
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = prefs.Language
	}
}
