package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"capsule-im/internal/middleware"
	"capsule-im/internal/services"
)

// MemoryHandler 封装了回忆相关的 HTTP 处理器方法。
type MemoryHandler struct {
	MemoryService services.MemoryService
}

// NewMemoryHandler 创建一个新的 MemoryHandler 实例。
func NewMemoryHandler(memoryService services.MemoryService) *MemoryHandler {
	return &MemoryHandler{MemoryService: memoryService}
}

// CreateMemoryRequest 是创建回忆请求的结构体。
type CreateMemoryRequest struct {
	Type    string `json:"type"` // text, image 或 video
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// CreateMemory 为当前用户创建一条回忆。
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	memory, err := h.MemoryService.CreateMemory(r.Context(), userID, req.Type, req.Content, req.URL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMemoryType) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			writeJSONError(w, "创建回忆失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, memory)
}

// ListMemories 返回当前用户的全部回忆。
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	memories, err := h.MemoryService.ListMemories(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取回忆列表失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, memories)
}
