package services

import (
	"context"
	"errors"
	"fmt"

	"capsule-im/internal/models"
	"capsule-im/internal/storage"
)

var ErrInvalidMemoryType = errors.New("无效的回忆类型")

// MemoryService 定义了回忆相关服务的接口。
type MemoryService interface {
	CreateMemory(ctx context.Context, userID uint, memoryType, content, url string) (*models.Memory, error)
	ListMemories(ctx context.Context, userID uint) ([]models.Memory, error)
}

// memoryService 是 MemoryService 的实现。
type memoryService struct {
	memoryRepo storage.MemoryRepository
}

// NewMemoryService 创建一个新的 MemoryService 实例。
func NewMemoryService(memoryRepo storage.MemoryRepository) MemoryService {
	return &memoryService{memoryRepo: memoryRepo}
}

// CreateMemory 为用户创建一条新的回忆记录。
func (s *memoryService) CreateMemory(ctx context.Context, userID uint, memoryType, content, url string) (*models.Memory, error) {
	mt := models.MemoryType(memoryType)
	switch mt {
	case models.TextMemoryType, models.ImageMemoryType, models.VideoMemoryType:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMemoryType, memoryType)
	}

	memory := &models.Memory{
		UserID:  userID,
		Type:    mt,
		Content: content,
		URL:     url,
	}
	if err := s.memoryRepo.Create(ctx, memory); err != nil {
		return nil, fmt.Errorf("创建回忆失败: %w", err)
	}
	return memory, nil
}

// ListMemories 返回用户的全部回忆，最新的在前。
func (s *memoryService) ListMemories(ctx context.Context, userID uint) ([]models.Memory, error) {
	memories, err := s.memoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取回忆列表失败: %w", err)
	}
	return memories, nil
}
