package docs

import (
	"encoding/json"
	"testing"
)

func TestStartAttemptDocumentsConflict(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			Summary   string                     `json:"summary"`
			Responses map[string]json.RawMessage `json:"responses"`
		} `json:"paths"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}

	op, ok := doc.Paths["/api/quiz-attempts/start/{quizId}"]["post"]
	if !ok {
		t.Fatal("start attempt operation missing")
	}
	if op.Summary != "Start an attempt" {
		t.Errorf("summary = %q", op.Summary)
	}
	for _, code := range []string{"200", "404", "409"} {
		if _, ok := op.Responses[code]; !ok {
			t.Errorf("response %s not documented", code)
		}
	}
}
