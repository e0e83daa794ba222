package gemini

import (
	"strings"
	"testing"

	gl "google.golang.org/api/generativelanguage/v1beta"
)

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("昨天晚餐我付了300", "2024-01-16")

	for _, want := range []string{
		"昨天晚餐我付了300",
		"Current Date: 2024-01-16",
		"YYYY-MM-DD",
		"SELF",
		"OTHER",
		"REPAYMENT",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestResponseSchemaFields(t *testing.T) {
	s := responseSchema()
	if s.Type != "OBJECT" {
		t.Fatalf("schema type = %q", s.Type)
	}
	for _, field := range []string{"item", "amount", "date", "payer", "kind"} {
		if _, ok := s.Properties[field]; !ok {
			t.Fatalf("schema missing property %q", field)
		}
	}
	if len(s.Required) != 5 {
		t.Fatalf("required = %v", s.Required)
	}
}

func TestFirstText(t *testing.T) {
	if got := firstText(nil); got != "" {
		t.Fatalf("nil response text = %q", got)
	}
	resp := &gl.GenerateContentResponse{
		Candidates: []*gl.Candidate{
			nil,
			{Content: &gl.Content{Parts: []*gl.Part{nil, {Text: ""}, {Text: `{"item":"x"}`}}}},
		},
	}
	if got := firstText(resp); got != `{"item":"x"}` {
		t.Fatalf("text = %q", got)
	}
}
