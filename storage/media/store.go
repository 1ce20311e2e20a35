package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"workforce/pkg/logger"
	"workforce/pkg/snowflake"
	"workforce/utils"
)

// Store persists image bytes and returns an opaque reference stored on the entity.
type Store interface {
	Save(ctx context.Context, img *utils.DecodedImage, prefix string) (string, error)
}

var errEmptyImage = errors.New("media: empty image")

// LocalStore 将图片写入本地目录，文件名为 prefix_snowflake.ext
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("media: root directory is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(ctx context.Context, img *utils.DecodedImage, prefix string) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", errEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := snowflake.NextBase36()
	if err != nil {
		return "", fmt.Errorf("media: generate name: %w", err)
	}

	name := sanitizePrefix(prefix) + "_" + id + img.Ext
	path := filepath.Join(s.root, name)

	// O_EXCL 防止覆盖已有文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("media: create %s: %w", name, err)
	}

	if _, err := f.Write(img.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("media: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("media: close %s: %w", name, err)
	}

	logger.For(ctx).Debug("Image stored",
		zap.String("ref", name),
		zap.String("content_type", img.ContentType),
		zap.Int("bytes", len(img.Data)),
	)

	return name, nil
}

func sanitizePrefix(prefix string) string {
	prefix = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, prefix)
	if prefix == "" {
		return "img"
	}
	return prefix
}
