package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const secret = "0123456789abcdef0123456789abcdef"

func tokenFor(t *testing.T, id uint, role model.UserRole, key string, ttl time.Duration) string {
	t.Helper()
	token, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: id}, Username: "u", Role: role}, key, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func serve(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}

	var seen *util.Claims
	r := gin.New()
	r.GET("/p", AuthMiddleware(cfg), func(c *gin.Context) {
		seen = util.GetUserFromContext(c)
		c.Status(http.StatusNoContent)
	})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &util.Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + tokenFor(t, 1, model.RoleUser, "another-secret", time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + tokenFor(t, 1, model.RoleUser, secret, -time.Minute), http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
		{"valid", "Bearer " + tokenFor(t, 7, model.RoleUser, secret, time.Hour), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			if got := serve(r, tt.header); got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen == nil || seen.UserID != 7) {
				t.Fatalf("claims = %+v", seen)
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}
	r := gin.New()
	r.GET("/p", AuthMiddleware(cfg), RoleMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if got := serve(r, "Bearer "+tokenFor(t, 1, model.RoleUser, secret, time.Hour)); got != http.StatusForbidden {
		t.Errorf("user = %d, want 403", got)
	}
	if got := serve(r, "Bearer "+tokenFor(t, 2, model.RoleAdmin, secret, time.Hour)); got != http.StatusNoContent {
		t.Errorf("admin = %d, want 204", got)
	}

	bare := gin.New()
	bare.GET("/p", RoleMiddleware(model.RoleUser), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if got := serve(bare, ""); got != http.StatusUnauthorized {
		t.Errorf("no claims = %d, want 401", got)
	}
}

type touchCounter struct {
	mu    sync.Mutex
	calls map[uint]int
	done  chan struct{}
}

func (tc *touchCounter) TouchLastSeen(userID uint) error {
	tc.mu.Lock()
	tc.calls[userID]++
	tc.mu.Unlock()
	tc.done <- struct{}{}
	return nil
}

func TestActivityMiddlewareThrottles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}
	rec := &touchCounter{calls: map[uint]int{}, done: make(chan struct{}, 16)}

	r := gin.New()
	r.GET("/p", AuthMiddleware(cfg), ActivityMiddleware(rec, time.Hour), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	alice := "Bearer " + tokenFor(t, 1, model.RoleUser, secret, time.Hour)
	bob := "Bearer " + tokenFor(t, 2, model.RoleUser, secret, time.Hour)
	for i := 0; i < 3; i++ {
		serve(r, alice)
	}
	serve(r, bob)

	for i := 0; i < 2; i++ {
		select {
		case <-rec.done:
		case <-time.After(2 * time.Second):
			t.Fatal("last seen was not recorded")
		}
	}
	select {
	case <-rec.done:
		t.Fatal("throttled request recorded last seen")
	case <-time.After(50 * time.Millisecond):
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.calls[1] != 1 || rec.calls[2] != 1 {
		t.Fatalf("calls = %v", rec.calls)
	}
}
