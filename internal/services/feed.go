package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"commentfeed/internal/models"
	"commentfeed/internal/sanitizer"
	"commentfeed/internal/thread"
	"commentfeed/internal/utils"

	"go.uber.org/zap"
)

const (
	recordsCacheKey = "feed:records"
	excerptLength   = 140
)

// FeedNode 是已排序、已清洗的评论节点，供页面和 API 使用
type FeedNode struct {
	models.Comment
	HTML        template.HTML `json:"html"`
	Excerpt     string        `json:"excerpt"`
	DisplayName string        `json:"display_name"`
	Links       []string      `json:"links"`
	Replies     []*FeedNode   `json:"replies"`
}

type FeedConfig struct {
	CacheSize    int
	CacheTTL     time.Duration
	DefaultSort  models.SortField
	DefaultOrder models.SortDirection
}

// FeedService 负责 拉取记录 -> 建树 -> 排序 -> 清洗
type FeedService struct {
	repo      CommentRepository
	sanitizer *sanitizer.Sanitizer
	records   *utils.TTLCache[[]models.Comment]
	threads   *utils.TTLCache[[]*FeedNode]
	cfg       FeedConfig
	log       *zap.Logger
}

func NewFeedService(repo CommentRepository, s *sanitizer.Sanitizer, cfg FeedConfig, log *zap.Logger) (*FeedService, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.DefaultSort == "" {
		cfg.DefaultSort = models.SortByCreatedAt
	}
	if cfg.DefaultOrder == "" {
		cfg.DefaultOrder = models.SortDesc
	}
	if s == nil {
		s = sanitizer.New()
	}

	records, err := utils.NewTTLCache[[]models.Comment](1, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("records cache: %w", err)
	}
	threads, err := utils.NewTTLCache[[]*FeedNode](cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("thread cache: %w", err)
	}

	return &FeedService{
		repo:      repo,
		sanitizer: s,
		records:   records,
		threads:   threads,
		cfg:       cfg,
		log:       log,
	}, nil
}

// ParseSort 规范化查询参数，无法识别时使用默认值
func (s *FeedService) ParseSort(field, order string) (models.SortField, models.SortDirection) {
	f := models.SortField(strings.ToLower(strings.TrimSpace(field)))
	switch f {
	case models.SortByCreatedAt, models.SortByUserName, models.SortByEmail:
	default:
		f = s.cfg.DefaultSort
	}

	d := models.SortDirection(strings.ToLower(strings.TrimSpace(order)))
	switch d {
	case models.SortAsc, models.SortDesc:
	default:
		d = s.cfg.DefaultOrder
	}
	return f, d
}

// Records 返回全部原始评论记录（带缓存）
func (s *FeedService) Records(ctx context.Context) ([]models.Comment, error) {
	if cached, ok := s.records.Get(recordsCacheKey); ok {
		return cached, nil
	}

	gen := s.records.Generation()
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.records.SetIfGeneration(gen, recordsCacheKey, records)
	return records, nil
}

// Thread 返回按 field/direction 排序后的评论树，回复始终按时间正序
func (s *FeedService) Thread(ctx context.Context, field models.SortField, direction models.SortDirection) ([]*FeedNode, error) {
	key := fmt.Sprintf("feed:thread:%s:%s", field, direction)
	if cached, ok := s.threads.Get(key); ok {
		return cached, nil
	}

	gen := s.threads.Generation()
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sorted := thread.SortTree(thread.BuildTree(records), field, direction)
	nodes := s.render(sorted)
	s.log.Debug("feed thread built",
		zap.Int("records", len(records)),
		zap.Int("roots", len(nodes)),
		zap.Int("nodes", thread.Count(sorted)),
		zap.String("sort", string(field)),
		zap.String("order", string(direction)),
		zap.Duration("took", time.Since(start)),
	)

	s.threads.SetIfGeneration(gen, key, nodes)
	return nodes, nil
}

// Render 清洗单条评论，用于实时推送
func (s *FeedService) Render(c models.Comment) *FeedNode {
	return s.renderNode(&models.CommentNode{Comment: c})
}

// Invalidate 在任何写操作后调用
func (s *FeedService) Invalidate() {
	s.records.Purge()
	s.threads.Purge()
}

func (s *FeedService) render(level []*models.CommentNode) []*FeedNode {
	out := make([]*FeedNode, 0, len(level))
	for _, n := range level {
		out = append(out, s.renderNode(n))
	}
	return out
}

func (s *FeedService) renderNode(n *models.CommentNode) *FeedNode {
	markup := s.sanitizer.Sanitize(n.Text)
	return &FeedNode{
		Comment:     n.Comment,
		HTML:        template.HTML(markup),
		Excerpt:     utils.Excerpt(markup, excerptLength),
		DisplayName: utils.StripTags(n.UserName),
		Links:       utils.LinkTargets(markup),
		Replies:     s.render(n.Replies),
	}
}
