package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("start: %w", ErrActiveAttemptExists), http.StatusConflict, "start: " + ErrActiveAttemptExists.Error()},
		{ErrQuizNotFound, http.StatusNotFound, ErrQuizNotFound.Error()},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

		HandleError(c, tt.err)

		var resp Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if w.Code != tt.status || resp.Code != tt.status || resp.Message != tt.message {
			t.Errorf("HandleError(%v) = %d %+v", tt.err, w.Code, resp)
		}
	}
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, PageResponse{List: []int{1}, Total: 1, Page: 1, Limit: 20})

	want := `{"code":200,"message":"success","data":{"list":[1],"total":1,"page":1,"limit":20}}`
	if w.Body.String() != want {
		t.Fatalf("body = %s", w.Body.String())
	}
}
