package json

import (
	"strings"
	"testing"
)

type decisionStub struct {
	Reply string `json:"reply"`
	Tool  string `json:"tool"`
}

func TestPureJSON(t *testing.T) {
	response := `{"reply": "hello", "tool": "create_schedule"}`
	result, err := ExtractJSONFromResponse[decisionStub](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reply != "hello" {
		t.Errorf("expected reply 'hello', got '%s'", result.Reply)
	}
	if result.Tool != "create_schedule" {
		t.Errorf("expected tool 'create_schedule', got '%s'", result.Tool)
	}
}

func TestJSONWithCommentary(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prefix", `Here is the result: {"reply": "hello", "tool": "create_schedule"}`},
		{"suffix", `{"reply": "hello", "tool": "create_schedule"} That's the output.`},
		{"both", `Let me think... {"reply": "hello", "tool": "create_schedule"} Done!`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractJSONFromResponse[decisionStub](tt.response)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Reply != "hello" {
				t.Errorf("expected reply 'hello', got '%s'", result.Reply)
			}
		})
	}
}

func TestJSONInMarkdownFence(t *testing.T) {
	response := "```json\n{\"reply\": \"hello\", \"tool\": \"\"}\n```"
	result, err := ExtractJSONFromResponse[decisionStub](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reply != "hello" {
		t.Errorf("expected reply 'hello', got '%s'", result.Reply)
	}
}

func TestNoJSON(t *testing.T) {
	response := "This is just plain text without any JSON."
	_, err := ExtractJSONFromResponse[decisionStub](response)
	if err == nil {
		t.Fatal("expected error for response with no JSON")
	}
	if !strings.Contains(err.Error(), "failed to extract") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLongResponseErrorIsTruncated(t *testing.T) {
	response := strings.Repeat("no json here ", 50)
	_, err := ExtractJSONFromResponse[decisionStub](response)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) > 250 {
		t.Errorf("error preview too long: %d chars", len(err.Error()))
	}
}
