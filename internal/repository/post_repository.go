package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter 列表过滤条件，零值表示全部帖子
type PostFilter struct {
	GroupID  *uint
	AuthorID string
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	UpdateContent(ctx context.Context, id uint, text string, groupID *uint) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]*model.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	DetachGroup(ctx context.Context, groupID uint) (int64, error)
	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository { return &postRepository{db: tx} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	// 只写外键，不写预加载的关联
	return r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error
}

// UpdateContent 只改 text 和 group，author 与 pub_date 不变
func (r *postRepository) UpdateContent(ctx context.Context, id uint, text string, groupID *uint) error {
	var group any = gorm.Expr("NULL")
	if groupID != nil {
		group = *groupID
	}
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{"text": text, "group_id": group})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List 按发布时间倒序返回帖子，pub_date 相同时后插入的在前
func (r *postRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.filtered(ctx, filter).
		Select("posts.*, LENGTH(posts.text) AS post_length").
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var cnt int64
	err := r.filtered(ctx, filter).Count(&cnt).Error
	return cnt, err
}

// DetachGroup 把分组下所有帖子的 group_id 置空，返回受影响行数
func (r *postRepository) DetachGroup(ctx context.Context, groupID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("group_id = ?", groupID).
		Update("group_id", gorm.Expr("NULL"))
	return res.RowsAffected, res.Error
}

func (r *postRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	if filter.GroupID != nil {
		q = q.Where("group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	return q
}
