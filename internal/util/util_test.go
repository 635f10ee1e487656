package util

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"
	"victorina_backend/internal/model"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 42}, Username: "alice", Role: model.RoleAdmin}
	token, err := GenerateJWT(user, "s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseJWT(token, "s3cret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != model.RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseJWT(token, "other"); err == nil {
		t.Error("token accepted with the wrong secret")
	}
	if _, err := ParseJWT(token+"x", "s3cret"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrQuizNotFound, http.StatusNotFound},
		{fmt.Errorf("load attempt 3: %w", ErrAttemptNotFound), http.StatusNotFound},
		{ErrActiveAttemptExists, http.StatusConflict},
		{fmt.Errorf("start: %w", ErrAttemptInProgress), http.StatusConflict},
		{ErrAttemptCompleted, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, DefaultPageSize},
		{"3", "10", 3, 10},
		{"-1", "0", 1, DefaultPageSize},
		{"x", "1000", 1, MaxPageSize},
	}
	for _, tt := range tests {
		page, limit := ParsePage(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("ParsePage(%q, %q) = %d, %d", tt.page, tt.limit, page, limit)
		}
	}
}

func TestValidateMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if mime, err := ValidateMimeType(bytes.NewReader(png), []string{MimeImage}); err != nil || mime != "image/png" {
		t.Fatalf("png = %q, %v", mime, err)
	}
	if _, err := ValidateMimeType(bytes.NewReader([]byte("plain text")), []string{MimeImage}); err == nil {
		t.Fatal("text accepted as image")
	}
	if !HasImageExtension("cat.JPG") || HasImageExtension("cat.exe") {
		t.Fatal("extension check")
	}
}
