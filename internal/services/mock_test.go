package services

import (
	"context"
	"sync"

	"commentfeed/internal/models"
)

// mockRepo 用函数字段替换各个方法，未设置时使用内存数据
type mockRepo struct {
	mu       sync.Mutex
	comments []models.Comment
	listN    int
	nextID   uint

	ListFn    func(ctx context.Context) ([]models.Comment, error)
	GetByIDFn func(ctx context.Context, id uint) (*models.Comment, error)
	CreateFn  func(ctx context.Context, c *models.Comment) error
}

func newMockRepo(comments ...models.Comment) *mockRepo {
	r := &mockRepo{comments: comments}
	for _, c := range comments {
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *mockRepo) List(ctx context.Context) ([]models.Comment, error) {
	r.mu.Lock()
	r.listN++
	r.mu.Unlock()
	if r.ListFn != nil {
		return r.ListFn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Comment(nil), r.comments...), nil
}

func (r *mockRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	if r.GetByIDFn != nil {
		return r.GetByIDFn(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			found := c.Clone()
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *mockRepo) Create(ctx context.Context, c *models.Comment) error {
	if r.CreateFn != nil {
		return r.CreateFn(ctx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.comments = append(r.comments, c.Clone())
	return nil
}

func (r *mockRepo) Update(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.comments {
		if r.comments[i].ID == c.ID {
			r.comments[i] = c.Clone()
			return nil
		}
	}
	return ErrNotFound
}

func (r *mockRepo) Delete(ctx context.Context, id uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doomed := map[uint]bool{}
	for _, c := range r.comments {
		if c.ID == id {
			doomed[id] = true
		}
	}
	if !doomed[id] {
		return nil, ErrNotFound
	}
	ids := []uint{id}
	// 按层展开子树
	for i := 0; i < len(ids); i++ {
		for _, c := range r.comments {
			if c.ParentID != nil && *c.ParentID == ids[i] && !doomed[c.ID] {
				doomed[c.ID] = true
				ids = append(ids, c.ID)
			}
		}
	}
	kept := r.comments[:0]
	for _, c := range r.comments {
		if !doomed[c.ID] {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return ids, nil
}

func (r *mockRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listN
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []uint
}

func (s *recordingScheduler) Schedule(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *recordingScheduler) scheduled() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint(nil), s.ids...)
}
