package services

import (
	"context"
	"errors"
	"fmt"

	"commentfeed/internal/models"

	"gorm.io/gorm"
)

// CommentRepository 是评论存储的抽象，便于在测试中替换
type CommentRepository interface {
	List(ctx context.Context) ([]models.Comment, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	// Delete 删除评论及其全部回复，返回被删除的 ID
	Delete(ctx context.Context, id uint) ([]uint, error)
}

type GormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// List 返回全部评论，按创建时间倒序
func (r *GormCommentRepository) List(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *GormCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &comment, nil
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// Update 只写入可编辑的字段，附件和父子关系不变
func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).Model(comment).
		Select("user_name", "email", "home_page", "text").
		Updates(comment)
	if res.Error != nil {
		return fmt.Errorf("update comment %d: %w", comment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const subtreeSQL = `WITH RECURSIVE sub AS (
	SELECT id FROM comments WHERE id = ?
	UNION
	SELECT c.id FROM comments c JOIN sub ON c.parent_id = sub.id
) SELECT id FROM sub`

func (r *GormCommentRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(subtreeSQL, id).Scan(&ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete comment %d: %w", id, err)
	}
	return ids, nil
}
