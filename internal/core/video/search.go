package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	collaboratorName = "video"
	defaultLimit     = 3
	watchURL         = "https://www.youtube.com/watch?v="
)

// Config YouTube 搜尋設定
type Config struct {
	APIKey     string
	Endpoint   string // 測試時指向本地伺服器
	MaxResults int
	Timeout    time.Duration
}

// Video 影片搜尋結果
type Video struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Searcher YouTube 影片搜尋
type Searcher struct {
	service *youtube.Service
	limit   int
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewSearcher 創建影片搜尋；沒有金鑰時仍會回傳 Searcher，呼叫時回傳設定錯誤
func NewSearcher(ctx context.Context, cfg Config, m *metrics.Metrics) (*Searcher, error) {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = defaultLimit
	}
	s := &Searcher{limit: limit, timeout: cfg.Timeout, metrics: m}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return s, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	s.service = svc
	return s, nil
}

// Search 依關鍵字搜尋影片，limit <= 0 時使用預設數量
func (s *Searcher) Search(ctx context.Context, keywords string, limit int) ([]Video, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, common.NewValidationError("q", "Please provide search keywords")
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	start := time.Now()
	videos, err := s.search(ctx, keywords, limit)
	s.metrics.ObserveCollaborator(collaboratorName, time.Since(start), err)
	return videos, err
}

func (s *Searcher) search(ctx context.Context, keywords string, limit int) ([]Video, error) {
	if s.service == nil {
		return nil, common.NewConfigError(collaboratorName, "YOUTUBE_API_KEY")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.service.Search.List([]string{"snippet"}).
		Q(keywords).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		v := Video{
			Title: item.Snippet.Title,
			URL:   watchURL + item.Id.VideoId,
		}
		if th := item.Snippet.Thumbnails; th != nil {
			v.ThumbnailURL = thumbnail(th)
		}
		videos = append(videos, v)
		if len(videos) == limit {
			break
		}
	}
	return videos, nil
}

// thumbnail 優先使用高解析度縮圖
func thumbnail(th *youtube.ThumbnailDetails) string {
	for _, t := range []*youtube.Thumbnail{th.High, th.Medium, th.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return common.NewCollaboratorError(collaboratorName, common.KindStatus, err)
	}
	return common.NewCollaboratorError(collaboratorName, common.KindUnreachable, err)
}
