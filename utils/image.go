package utils

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrEmptyImage       = errors.New("image payload is empty")
	ErrImageTooLarge    = errors.New("image payload exceeds size limit")
	ErrImageEncoding    = errors.New("image payload is not valid base64")
	ErrImageContentType = errors.New("image payload is not a supported image type")
)

// 支持的图片类型及扩展名
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodedImage 解码后的图片
type DecodedImage struct {
	ContentType string
	Ext         string
	Data        []byte
}

// DecodeBase64Image 解码 base64 图片，可带 data:image/...;base64, 前缀
func DecodeBase64Image(payload string, maxBytes int) (*DecodedImage, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.HasSuffix(payload[:idx], ";base64") {
			return nil, ErrImageEncoding
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, ErrEmptyImage
	}

	// 客户端常常省略 padding
	enc := base64.StdEncoding
	if len(payload)%4 != 0 {
		enc = base64.RawStdEncoding
		payload = strings.TrimRight(payload, "=")
	}

	if maxBytes > 0 && enc.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, ErrImageTooLarge
	}

	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, ErrImageEncoding
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrImageContentType
	}

	return &DecodedImage{ContentType: contentType, Ext: ext, Data: data}, nil
}
