package enrich

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"sipsync/internal/api/handlers"
	"sipsync/internal/core/places"
	"sipsync/internal/core/video"
	"sipsync/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxVideoLimit = 10

// VideoSearcher 影片搜尋
type VideoSearcher interface {
	Search(ctx context.Context, keywords string, limit int) ([]video.Video, error)
}

// StoreFinder 地理編碼與附近商店
type StoreFinder interface {
	Geocode(ctx context.Context, address string) (*places.Location, error)
	NearbyStores(ctx context.Context, lat, lon float64, ingredients []string) ([]places.Store, error)
}

// Handler 影片與商店查詢處理程序
type Handler struct {
	videos VideoSearcher
	stores StoreFinder
}

// NewHandler 創建處理程序
func NewHandler(videos VideoSearcher, stores StoreFinder) *Handler {
	return &Handler{
		videos: videos,
		stores: stores,
	}
}

// HandleVideos 搜尋教學影片，外部服務失敗時回傳空清單
func (h *Handler) HandleVideos(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		handlers.RespondError(c, common.NewValidationError("q", "Please provide search keywords"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxVideoLimit {
			handlers.RespondError(c, common.NewValidationError("limit", "Limit must be between 1 and 10"))
			return
		}
		limit = n
	}

	videos := []video.Video{}
	if h.videos != nil {
		found, err := h.videos.Search(c.Request.Context(), q, limit)
		if err != nil {
			common.LogCollaboratorFailure("影片搜尋失敗", err, zap.String("request_id", handlers.RequestID(c)))
		} else if found != nil {
			videos = found
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":  q,
		"videos": videos,
	})
}

// HandleStores 搜尋附近可購買材料的商店
//
// 以 address 或 lat/lon 指定位置；外部服務失敗時回傳空清單。
func (h *Handler) HandleStores(c *gin.Context) {
	ctx := c.Request.Context()
	ingredients := common.SplitCSV(c.Query("ingredients"))

	loc, err := parseLocation(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	stores := []places.Store{}
	if h.stores == nil {
		c.JSON(http.StatusOK, gin.H{"location": loc, "stores": stores})
		return
	}

	if loc == nil {
		address := strings.TrimSpace(c.Query("address"))
		loc, err = h.stores.Geocode(ctx, address)
		if err != nil {
			common.LogCollaboratorFailure("地址查詢失敗", err, zap.String("request_id", handlers.RequestID(c)))
			c.JSON(http.StatusOK, gin.H{"location": nil, "stores": stores})
			return
		}
	}

	found, err := h.stores.NearbyStores(ctx, loc.Latitude, loc.Longitude, ingredients)
	if err != nil {
		common.LogCollaboratorFailure("商店查詢失敗", err, zap.String("request_id", handlers.RequestID(c)))
	} else if found != nil {
		stores = found
	}

	c.JSON(http.StatusOK, gin.H{
		"location": loc,
		"stores":   stores,
	})
}

// parseLocation 讀取 lat/lon；只有 address 時回傳 nil
func parseLocation(c *gin.Context) (*places.Location, error) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" && rawLon == "" {
		if strings.TrimSpace(c.Query("address")) == "" {
			return nil, common.ErrInvalidLocation
		}
		return nil, nil
	}

	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, common.ErrInvalidLocation
	}
	return &places.Location{Latitude: lat, Longitude: lon}, nil
}
