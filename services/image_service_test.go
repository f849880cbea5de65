package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"eventboard-api/models"
)

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAttachSmallImageKeepsFormat(t *testing.T) {
	raw := noisyPNG(t, 8, 8)

	got, err := AttachImage(bytes.NewReader(raw), "", models.MaxImageBytes)
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("data url prefix = %.30s", got)
	}
}

func TestAttachLargeImageIsDownscaled(t *testing.T) {
	raw := noisyPNG(t, 400, 400)
	if len(raw) <= models.MaxImageBytes {
		t.Fatalf("fixture only %d bytes", len(raw))
	}

	got, err := AttachImage(bytes.NewReader(raw), "image/png", models.MaxImageBytes)
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	if len(got) > models.MaxImageBytes {
		t.Errorf("encoded %d bytes, cap %d", len(got), models.MaxImageBytes)
	}
	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("downscaled image should be JPEG: %.30s", got)
	}

	// the result must still satisfy draft validation
	d := picnicDraft()
	d.ImageData = got
	if err := models.ValidateDraft(d); err != nil {
		t.Errorf("ValidateDraft: %v", err)
	}
}

func TestAttachImageThatCannotFit(t *testing.T) {
	raw := noisyPNG(t, 64, 64)
	if _, err := AttachImage(bytes.NewReader(raw), "image/png", 200); !errors.Is(err, models.ErrImageTooLarge) {
		t.Errorf("err = %v, want ErrImageTooLarge", err)
	}
}

func TestAttachRejectsNonImages(t *testing.T) {
	_, err := AttachImage(strings.NewReader("just some text"), "text/plain", models.MaxImageBytes)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("err = %v, want ErrUnsupportedImage", err)
	}
}
