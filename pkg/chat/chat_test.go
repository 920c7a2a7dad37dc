package chat

import (
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/parleygo/parley/pkg/kb"
)

func TestComposeDocsPrompt(t *testing.T) {
	t.Parallel()

	kc := kb.Context{
		URLs: []string{"https://example.com/manual"},
		Files: []kb.File{
			{Name: "faq.md", Content: []byte("Q: why?\nA: because.")},
		},
	}
	got := ComposeDocsPrompt("How does it work?", kc)

	for _, want := range []string{
		"https://example.com/manual",
		"faq.md",
		"because.",
		"Question: How does it work?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	// The question must come after the material it is grounded in.
	if strings.Index(got, "Question:") < strings.Index(got, "faq.md") {
		t.Error("question appears before the reference material")
	}
}

func TestExtractAnswer(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: "Grounded reply."}},
			},
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "Manual", URI: "https://example.com/manual"}},
					{Web: nil},
					{Web: &genai.GroundingChunkWeb{URI: ""}},
				},
			},
		}},
	}

	answer := extractAnswer(resp)
	if answer.Text != "Grounded reply." {
		t.Errorf("text = %q", answer.Text)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(answer.Sources))
	}
	if s := answer.Sources[0]; s.Title != "Manual" || s.URI != "https://example.com/manual" {
		t.Errorf("source = %+v", s)
	}
}

func TestExtractAnswer_NilResponse(t *testing.T) {
	t.Parallel()

	answer := extractAnswer(nil)
	if answer.Text != "" || len(answer.Sources) != 0 {
		t.Errorf("nil response produced %+v", answer)
	}
}
