package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"victorina_backend/internal/config"
	"victorina_backend/internal/util"
)

func fileHeader(t *testing.T, name string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(body)
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestUploadImageLocal(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: dir}}
	svc := NewQuizService(nil, NewStorageService(cfg))

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	url, err := svc.UploadImage(context.Background(), fileHeader(t, "cover.PNG", png))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/quizzes/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}
	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/"))))
	if err != nil || !bytes.Equal(stored, png) {
		t.Fatalf("stored file = %d bytes, %v", len(stored), err)
	}
}

func TestUploadImageRejects(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}}
	svc := NewQuizService(nil, NewStorageService(cfg))

	tests := []struct {
		name string
		file string
		body []byte
	}{
		{"extension", "notes.txt", []byte("\x89PNG\r\n\x1a\n")},
		{"content", "fake.png", []byte("just some text pretending")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(context.Background(), fileHeader(t, tt.file, tt.body))
			if !errors.Is(err, util.ErrInvalidQuiz) {
				t.Fatalf("err = %v, want ErrInvalidQuiz", err)
			}
		})
	}
}

func TestStorageUploadRejectsEscapingKeys(t *testing.T) {
	svc := NewStorageService(&config.Config{Storage: config.StorageConfig{LocalPath: t.TempDir()}})
	if root, ok := svc.LocalRoot(); !ok || root == "" {
		t.Fatalf("LocalRoot = %q, %v", root, ok)
	}
	for _, key := range []string{"../outside.png", "a/../../b.png", "", "/abs.png"} {
		if _, err := svc.Upload(context.Background(), key, strings.NewReader("x"), 1, "image/png"); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}
