package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

func TestLocalStoreLifecycle(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(logger.Nop(), root)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()
	key := "photos/u1_abc.jpg"

	if ok, err := store.Exists(ctx, key); err != nil || ok {
		t.Fatalf("Exists before put: ok=%v err=%v", ok, err)
	}
	if err := store.Put(ctx, key, bytes.NewReader([]byte("jpeg-bytes")), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "photos", "u1_abc.jpg")); err != nil {
		t.Fatalf("stat stored file: %v", err)
	}
	if ok, err := store.Exists(ctx, key); err != nil || !ok {
		t.Fatalf("Exists after put: ok=%v err=%v", ok, err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != "jpeg-bytes" {
		t.Fatalf("content: want=%q got=%q", "jpeg-bytes", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing should be a no-op: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Open deleted: want ErrObjectNotFound got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "photos"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(logger.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "photos/../../x", "a//b", `a\b`} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), ""); err == nil {
			t.Fatalf("Put(%q): expected error", key)
		}
	}
}

func TestLocalStorePutHonoursDeadline(t *testing.T) {
	store, err := NewLocalStore(logger.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	err = store.Put(ctx, "photos/late.jpg", strings.NewReader("x"), "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
	if ok, _ := store.Exists(context.Background(), "photos/late.jpg"); ok {
		t.Fatalf("object must not exist after a failed put")
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.PNG":      "image/png",
		"a.jpeg":     "image/jpeg",
		"a.webp?x=1": "image/webp",
		"a.gif":      "image/gif",
		"a.bin":      "",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
