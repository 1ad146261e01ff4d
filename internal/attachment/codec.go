package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultContentType 是没有 data URL 前缀的裸 base64 载荷的默认类型。
const DefaultContentType = "image/png"

// ErrMalformedPayload 表示入站图片载荷无法解析。
var ErrMalformedPayload = errors.New("附件载荷格式无效")

// Decode 将文本编码的图片载荷转换为二进制数据。
// 接受 "data:<mime>;base64,<数据>" 形式的 data URL，也接受裸 base64 字符串；
// 前缀中声明的 MIME 类型会被记录并返回，缺省为 image/png。
func Decode(payload string) (data []byte, contentType string, err error) {
	contentType = DefaultContentType

	b64 := payload
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: data URL 缺少逗号分隔符", ErrMalformedPayload)
		}
		meta := payload[len("data:"):comma]
		b64 = payload[comma+1:]

		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: 仅支持 base64 编码的 data URL", ErrMalformedPayload)
		}
		if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
			contentType = mt
		}
	}

	data, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return data, contentType, nil
}

// Encode 将二进制数据编码回可传输的 data URL 表示。
// 对任意二进制输入总是成功；contentType 为空时使用默认类型。
func Encode(data []byte, contentType string) string {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
