package storage

import (
	"context"

	"gorm.io/gorm"

	"capsule-im/internal/models"
)

// MemoryRepository defines the interface for memory data operations.
type MemoryRepository interface {
	Create(ctx context.Context, memory *models.Memory) error
	ListByUser(ctx context.Context, userID uint) ([]models.Memory, error)
}

// gormMemoryRepository implements MemoryRepository using GORM.
type gormMemoryRepository struct {
	db *gorm.DB
}

// NewGormMemoryRepository creates a new GORM-based MemoryRepository.
func NewGormMemoryRepository(db *gorm.DB) MemoryRepository {
	return &gormMemoryRepository{db: db}
}

// Create creates a new memory record in the database.
func (r *gormMemoryRepository) Create(ctx context.Context, memory *models.Memory) error {
	return r.db.WithContext(ctx).Create(memory).Error
}

// ListByUser 返回某个用户的全部回忆条目，最新的排在最前面。
func (r *gormMemoryRepository) ListByUser(ctx context.Context, userID uint) ([]models.Memory, error) {
	var memories []models.Memory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&memories).Error
	if err != nil {
		return nil, err
	}
	return memories, nil
}
