package utils

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeBase64Image(t *testing.T) {
	raw := samplePNG(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		payload string
		max     int
		wantErr error
	}{
		{name: "raw base64", payload: encoded},
		{name: "data uri prefix", payload: "data:image/png;base64," + encoded},
		{name: "unpadded", payload: base64.RawStdEncoding.EncodeToString(raw)},
		{name: "empty", payload: "  ", wantErr: ErrEmptyImage},
		{name: "empty after prefix", payload: "data:image/png;base64,", wantErr: ErrEmptyImage},
		{name: "prefix without base64 marker", payload: "data:image/png," + encoded, wantErr: ErrImageEncoding},
		{name: "not base64", payload: "!!!not-base64!!!", wantErr: ErrImageEncoding},
		{name: "not an image", payload: base64.StdEncoding.EncodeToString([]byte("plain text body")), wantErr: ErrImageContentType},
		{name: "too large", payload: encoded, max: 8, wantErr: ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBase64Image(tt.payload, tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "image/png", img.ContentType)
			assert.Equal(t, ".png", img.Ext)
			assert.Equal(t, raw, img.Data)
		})
	}
}
