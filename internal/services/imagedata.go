package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

// ImageData is an upload reduced to its decoded bytes.
type ImageData struct {
	Bytes       []byte
	Format      string
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Hash is the hex sha256 of the decoded bytes, so the same picture sent as
// a data URL, bare base64 or binary hashes identically.
func (d *ImageData) Hash() string {
	sum := sha256.Sum256(d.Bytes)
	return hex.EncodeToString(sum[:])
}

var imageFormats = map[string]struct{ contentType, ext string }{
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"gif":  {"image/gif", ".gif"},
	"webp": {"image/webp", ".webp"},
}

// NormalizeImage accepts a data URL, bare base64 text or raw image bytes.
// maxBytes <= 0 disables the size check.
func NormalizeImage(raw []byte, maxBytes int64) (*ImageData, error) {
	const op = "normalize image"
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, sferrors.Validation(op, "image data is empty")
	}

	var decoded []byte
	switch {
	case hasDataURLPrefix(trimmed):
		b, err := decodeDataURL(string(trimmed))
		if err != nil {
			return nil, sferrors.Validation(op, "%v", err)
		}
		decoded = b
	case looksLikeImage(raw):
		decoded = raw
	default:
		b, err := decodeBase64(string(trimmed))
		if err != nil {
			return nil, sferrors.Validation(op, "image data is neither an image nor base64")
		}
		decoded = b
	}

	if maxBytes > 0 && int64(len(decoded)) > maxBytes {
		return nil, sferrors.Validation(op, "image is %d bytes, limit is %d", len(decoded), maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	if err != nil {
		return nil, sferrors.Validation(op, "unsupported or corrupt image: %v", err)
	}
	meta, ok := imageFormats[format]
	if !ok {
		return nil, sferrors.Validation(op, "unsupported image format %q", format)
	}
	return &ImageData{
		Bytes:       decoded,
		Format:      format,
		ContentType: meta.contentType,
		Ext:         meta.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func hasDataURLPrefix(b []byte) bool {
	return len(b) >= 5 && strings.EqualFold(string(b[:5]), "data:")
}

func decodeDataURL(s string) ([]byte, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, errors.New("data URL has no payload")
	}
	header := strings.ToLower(s[len("data:"):comma])
	params := strings.Split(header, ";")
	if params[0] != "" && !strings.HasPrefix(params[0], "image/") {
		return nil, fmt.Errorf("data URL media type %q is not an image", params[0])
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.TrimSpace(p) == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return nil, errors.New("data URL must be base64 encoded")
	}
	b, err := decodeBase64(s[comma+1:])
	if err != nil {
		return nil, errors.New("data URL payload is not valid base64")
	}
	return b, nil
}

// decodeBase64 tolerates line breaks, missing padding and the URL-safe alphabet.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, errors.New("empty base64 payload")
	}
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func looksLikeImage(b []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(b))
	return err == nil
}
