package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"capsule-im/internal/middleware"
	"capsule-im/internal/services"
	"capsule-im/internal/storage"
)

// MessageHandler 封装了消息相关的 HTTP 处理器方法。
type MessageHandler struct {
	MessageService services.MessageService
}

// NewMessageHandler 创建一个新的 MessageHandler 实例。
func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{MessageService: messageService}
}

// SendMessageRequest 是发送消息请求的结构体。
// Text 和 Image 都可以为空，但服务层要求接收者有效。
// Image 是 data URL 或裸 base64 字符串。
type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// SendMessage 处理向指定用户发送消息的请求。
// 路径参数 {userID} 是接收者。
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	receiverID, err := storage.StrToUint(mux.Vars(r)["userID"])
	if err != nil {
		writeJSONError(w, "接收者ID无效", http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	message, err := h.MessageService.SendMessage(r.Context(), senderID, receiverID, req.Text, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReceiverRequired):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrMalformedAttachment):
			writeJSONError(w, "图片附件格式无效", http.StatusBadRequest)
		default:
			writeJSONError(w, "发送消息失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, message)
}

// GetConversation 返回当前用户与指定用户之间的完整消息历史。
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	otherUserID, err := storage.StrToUint(mux.Vars(r)["userID"])
	if err != nil {
		writeJSONError(w, "用户ID无效", http.StatusBadRequest)
		return
	}

	messages, err := h.MessageService.GetConversation(r.Context(), userID, otherUserID)
	if err != nil {
		writeJSONError(w, "获取会话消息失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, messages)
}
