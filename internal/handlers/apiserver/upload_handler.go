package apiserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"capsule-im/internal/config"
	"capsule-im/internal/imtypes"
)

const (
	defaultMaxMemory = 32 << 20 // 32 MB default max memory for multipart forms
)

// UploadHandler 封装了媒体文件上传相关的 HTTP 处理器方法。
type UploadHandler struct {
	mediaStorage imtypes.MediaStorage
	cfg          config.StorageConfig
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(mediaStorage imtypes.MediaStorage, cfg config.StorageConfig) *UploadHandler {
	return &UploadHandler{
		mediaStorage: mediaStorage,
		cfg:          cfg,
	}
}

// UploadFile 处理文件上传请求。
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	// 限制请求体大小
	maxUploadSize := h.cfg.MaxFileSizeMB << 20 // MB 转字节
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20)
			writeJSONError(w, msg, http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, fmt.Sprintf("解析表单失败: %v", err), http.StatusBadRequest)
		}
		return
	}

	// "file" 是表单中文件的 key
	file, handler, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			writeJSONError(w, "请求中缺少 'file' 字段", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("获取文件失败: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	mimeType := handler.Header.Get("Content-Type")
	log.Printf("收到上传文件: 名称=%s, 大小=%d, 类型=%s", handler.Filename, handler.Size, mimeType)

	// MaxBytesReader 限制的是整个请求体，这里再单独确认文件大小
	if handler.Size > maxUploadSize {
		msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20)
		writeJSONError(w, msg, http.StatusRequestEntityTooLarge)
		return
	}

	fileInfo, err := h.mediaStorage.SaveMedia(r.Context(), file, handler.Size, handler.Filename, mimeType)
	if err != nil {
		log.Printf("存储文件失败: %v", err)
		writeJSONError(w, "存储文件失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, fileInfo)
}
