package util

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// ValidateMimeType sniffs up to 512 bytes of r and returns the detected type
// if it starts with one of allowed.
func ValidateMimeType(r io.Reader, allowed []string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	mimeType := http.DetectContentType(head[:n])
	for _, prefix := range allowed {
		if strings.HasPrefix(mimeType, prefix) {
			return mimeType, nil
		}
	}
	return mimeType, fmt.Errorf("file type %s is not allowed", mimeType)
}

func HasImageExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
