package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"capsule-im/internal/middleware"
	"capsule-im/internal/services"
)

// UserHandler 封装了用户相关的 HTTP 处理器方法。
type UserHandler struct {
	UserService services.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// UpdateProfileRequest 是更新个人资料请求的结构体。
// 空字段表示不修改。
type UpdateProfileRequest struct {
	FullName   string `json:"fullName,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// GetMe 返回当前认证用户的个人资料。
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetUserProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, "用户未找到", http.StatusNotFound)
		} else {
			writeJSONError(w, "获取用户资料失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateMe 更新当前认证用户的个人资料。
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.UserService.UpdateUserProfile(r.Context(), userID, req.FullName, req.ProfilePic)
	if err != nil {
		writeJSONError(w, "更新用户资料失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// ListUsers 返回除当前用户外的所有用户摘要，用于会话侧边栏。
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	users, err := h.UserService.ListOtherUsers(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取用户列表失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, users)
}
