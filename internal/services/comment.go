package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"commentfeed/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const MaxTextBytes = 100 * 1024

// CreateCommentInput 来自 JSON 或 multipart 表单
type CreateCommentInput struct {
	UserName string `json:"user_name" form:"user_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	HomePage string `json:"home_page" form:"home_page" validate:"omitempty,url,max=200"`
	Text     string `json:"text" form:"text" validate:"required"`
	Parent   *uint  `json:"parent" form:"parent"`
	Captcha  string `json:"captcha" form:"captcha" validate:"required"`
}

// UpdateCommentInput 是 PATCH 请求体，nil 字段保持原值
type UpdateCommentInput struct {
	UserName *string `json:"user_name" form:"user_name"`
	Email    *string `json:"email" form:"email"`
	HomePage *string `json:"home_page" form:"home_page"`
	Text     *string `json:"text" form:"text"`
}

// editableFields 合并后的结果，规则与创建时一致
type editableFields struct {
	UserName string `json:"user_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	HomePage string `json:"home_page" validate:"omitempty,url,max=200"`
	Text     string `json:"text" validate:"required"`
}

// Scheduler 接收需要推送的评论 ID
type Scheduler interface {
	Schedule(commentID uint)
}

type CommentService struct {
	repo      CommentRepository
	feed      *FeedService
	scheduler Scheduler
	validate  *validator.Validate
	log       *zap.Logger
	now       func() time.Time
}

func NewCommentService(repo CommentRepository, feed *FeedService, scheduler Scheduler, log *zap.Logger) *CommentService {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &CommentService{
		repo:      repo,
		feed:      feed,
		scheduler: scheduler,
		validate:  v,
		log:       log,
		now:       time.Now,
	}
}

// Validate 检查输入，返回包装了 ErrInvalidInput 的错误
func (s *CommentService) Validate(in *CreateCommentInput) error {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	in.HomePage = strings.TrimSpace(in.HomePage)
	// 表单里的空 parent 会被绑定成 0，ID 从 1 开始
	if in.Parent != nil && *in.Parent == 0 {
		in.Parent = nil
	}

	if err := s.validate.Struct(in); err != nil {
		return structError(err)
	}
	return checkContent(in.HomePage, in.Text)
}

func structError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s failed on %s", ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func checkContent(homePage, text string) error {
	if homePage != "" {
		lower := strings.ToLower(homePage)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return fmt.Errorf("%w: home_page must start with http:// or https://", ErrInvalidInput)
		}
	}

	// 存原文，渲染时再清洗
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if len(text) > MaxTextBytes {
		return fmt.Errorf("%w: text larger than 100 KB", ErrInvalidInput)
	}
	return nil
}

// Create 校验并保存评论，成功后清理缓存并安排实时推送
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput, att *Attachment) (*models.Comment, error) {
	if err := s.Validate(&in); err != nil {
		return nil, err
	}

	if in.Parent != nil {
		if _, err := s.repo.GetByID(ctx, *in.Parent); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrParentNotFound, *in.Parent)
			}
			return nil, err
		}
	}

	comment := &models.Comment{
		UserName:  in.UserName,
		Email:     in.Email,
		Text:      in.Text,
		CreatedAt: s.now(),
		ParentID:  in.Parent,
	}
	if in.HomePage != "" {
		homePage := in.HomePage
		comment.HomePage = &homePage
	}
	att.apply(comment)

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.feed.Invalidate()
	if s.scheduler != nil {
		s.scheduler.Schedule(comment.ID)
	}

	s.log.Info("comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Bool("reply", comment.ParentID != nil),
		zap.String("attachment", comment.AttachmentType),
	)
	return comment, nil
}

func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Update 修改评论的可编辑字段，附件和 parent 不可改
func (s *CommentService) Update(ctx context.Context, id uint, in UpdateCommentInput) (*models.Comment, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f := editableFields{UserName: comment.UserName, Email: comment.Email, Text: comment.Text}
	if comment.HomePage != nil {
		f.HomePage = *comment.HomePage
	}
	if in.UserName != nil {
		f.UserName = strings.TrimSpace(*in.UserName)
	}
	if in.Email != nil {
		f.Email = strings.TrimSpace(*in.Email)
	}
	if in.HomePage != nil {
		f.HomePage = strings.TrimSpace(*in.HomePage)
	}
	if in.Text != nil {
		f.Text = *in.Text
	}

	if err := s.validate.Struct(&f); err != nil {
		return nil, structError(err)
	}
	if err := checkContent(f.HomePage, f.Text); err != nil {
		return nil, err
	}

	comment.UserName = f.UserName
	comment.Email = f.Email
	comment.Text = f.Text
	comment.HomePage = nil
	if f.HomePage != "" {
		comment.HomePage = &f.HomePage
	}

	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}

	s.feed.Invalidate()
	if s.scheduler != nil {
		s.scheduler.Schedule(comment.ID)
	}
	s.log.Info("comment updated", zap.Uint("comment_id", comment.ID))
	return comment, nil
}

// Delete 删除评论和它的回复，每个被删的 ID 都会推送 comment_delete
func (s *CommentService) Delete(ctx context.Context, id uint) ([]uint, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	ids, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.feed.Invalidate()
	if s.scheduler != nil {
		for _, deleted := range ids {
			s.scheduler.Schedule(deleted)
		}
	}
	s.log.Info("comment deleted", zap.Uint("comment_id", id), zap.Int("removed", len(ids)))
	return ids, nil
}
