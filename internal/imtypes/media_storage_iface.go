// internal/imtypes/media_storage_iface.go
package imtypes

import (
	"context"
	"io"
)

// MediaStorage 定义了上传媒体文件的存储操作接口。
// 接口定义放在 imtypes 中以打破 storage 和 handlers 之间的循环依赖。
type MediaStorage interface {
	// SaveMedia 将读取器中的内容保存到存储系统。
	// fileName 是原始文件名，mimeType 是文件的 MIME 类型。
	// 返回文件的信息 (FileInfo)，包括访问 URL。
	SaveMedia(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
}
