package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

func TestNormalizeImageEncodingsHashAlike(t *testing.T) {
	raw := pngBytes(t, 10)
	b64 := base64.StdEncoding.EncodeToString(raw)

	inputs := map[string][]byte{
		"binary":       raw,
		"base64":       []byte(b64),
		"base64 lines": []byte(b64[:8] + "\n" + b64[8:] + "\n"),
		"data url":     []byte("data:image/png;base64," + b64),
		"data url raw": []byte("data:image/png;base64," + base64.RawStdEncoding.EncodeToString(raw)),
		"url-safe":     []byte(base64.URLEncoding.EncodeToString(raw)),
	}
	var want string
	for name, in := range inputs {
		got, err := NormalizeImage(in, 0)
		if err != nil {
			t.Fatalf("%s: NormalizeImage: %v", name, err)
		}
		if got.Format != "png" || got.Ext != ".png" || got.ContentType != "image/png" {
			t.Fatalf("%s: format: got=%s %s %s", name, got.Format, got.Ext, got.ContentType)
		}
		if got.Width != 4 || got.Height != 3 {
			t.Fatalf("%s: size: want=4x3 got=%dx%d", name, got.Width, got.Height)
		}
		if want == "" {
			want = got.Hash()
		}
		if got.Hash() != want {
			t.Fatalf("%s: hash differs across encodings", name)
		}
	}
}

func TestNormalizeImageJPEG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	got, err := NormalizeImage(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("NormalizeImage: %v", err)
	}
	if got.Ext != ".jpg" || got.ContentType != "image/jpeg" {
		t.Fatalf("jpeg mapping: got=%s %s", got.Ext, got.ContentType)
	}
}

func TestNormalizeImageRejects(t *testing.T) {
	raw := pngBytes(t, 20)
	cases := map[string][]byte{
		"empty":             nil,
		"whitespace":        []byte("  \n"),
		"not base64":        []byte("this is not an image!"),
		"base64 not image":  []byte(base64.StdEncoding.EncodeToString([]byte("hello world"))),
		"data url no comma": []byte("data:image/png;base64"),
		"data url text":     []byte("data:text/plain;base64," + base64.StdEncoding.EncodeToString(raw)),
		"data url plain":    []byte("data:image/png," + string(raw)),
		"truncated":         raw[:len(raw)/3],
	}
	for name, in := range cases {
		_, err := NormalizeImage(in, 0)
		if !errors.Is(err, sferrors.ErrValidation) {
			t.Fatalf("%s: want ErrValidation got %v", name, err)
		}
	}
}

func TestNormalizeImageSizeLimit(t *testing.T) {
	raw := pngBytes(t, 30)
	if _, err := NormalizeImage(raw, int64(len(raw))); err != nil {
		t.Fatalf("at limit: %v", err)
	}
	_, err := NormalizeImage(raw, int64(len(raw)-1))
	if !errors.Is(err, sferrors.ErrValidation) {
		t.Fatalf("over limit: want ErrValidation got %v", err)
	}
}
