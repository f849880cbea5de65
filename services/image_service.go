package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"eventboard-api/models"

	"github.com/disintegration/imaging"
)

// MaxUploadBytes bounds the raw upload read before any downscaling.
const MaxUploadBytes = 10 << 20

const minImageWidth = 32

var ErrUnsupportedImage = errors.New("upload is not a supported image")

// AttachImage inlines an uploaded image as a base64 data URL no longer than
// max bytes. Oversized images are re-encoded as progressively smaller JPEGs;
// models.ErrImageTooLarge is returned when even the smallest one does not fit.
func AttachImage(r io.Reader, contentType string, max int) (string, error) {
	if max <= 0 {
		max = models.MaxImageBytes
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxUploadBytes {
		return "", models.ErrImageTooLarge
	}

	if ct := http.DetectContentType(raw); strings.HasPrefix(ct, "image/") {
		contentType = ct
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedImage
	}

	if encoded := dataURL(contentType, raw); len(encoded) <= max {
		return encoded, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	width := img.Bounds().Dx()
	for width > minImageWidth {
		width = width * 3 / 4
		if width < minImageWidth {
			width = minImageWidth
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
			return "", fmt.Errorf("encode image: %w", err)
		}
		if encoded := dataURL("image/jpeg", buf.Bytes()); len(encoded) <= max {
			return encoded, nil
		}
	}
	return "", models.ErrImageTooLarge
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
