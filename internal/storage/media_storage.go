package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"capsule-im/internal/config"
	"capsule-im/internal/imtypes"
)

// LocalMediaStorage 实现了 imtypes.MediaStorage 接口，将媒体文件保存到本地磁盘。
type LocalMediaStorage struct {
	basePath string // 本地存储的基础路径，例如 "./uploads"
	baseURL  string // 用于构建文件访问 URL 的基础 URL，例如 "/static/uploads"
}

// NewLocalMediaStorage 创建一个新的 LocalMediaStorage 实例。
// basePath 是文件存储的根目录，baseURL 是文件访问 URL 的前缀。
func NewLocalMediaStorage(cfg config.StorageConfig, baseURL string) (imtypes.MediaStorage, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败 '%s': %w", cfg.LocalPath, err)
	}
	return &LocalMediaStorage{
		basePath: cfg.LocalPath,
		baseURL:  baseURL,
	}, nil
}

// SaveMedia 将文件保存到本地文件系统。
// 只接受图片类型，上传产物用作头像等图片引用。
func (s *LocalMediaStorage) SaveMedia(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*imtypes.FileInfo, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("不支持的媒体类型: %s", mimeType)
	}

	// 生成一个唯一的文件名，保留原始扩展名
	ext := filepath.Ext(fileName)
	if ext == "" {
		// 如果没有扩展名，尝试从 MIME 类型推断
		extensions, _ := mime.ExtensionsByType(mimeType)
		if len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext

	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("创建目标文件失败 '%s': %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		// 如果复制出错，尝试删除已创建的文件
		os.Remove(dstPath)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("文件大小不匹配: 预期 %d, 实际写入 %d", fileSize, written)
	}

	fileURL := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName)

	return &imtypes.FileInfo{
		URL:      fileURL,
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}
