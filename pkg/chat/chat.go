// Package chat answers one-shot text questions, grounded either in the
// knowledge base's reference URLs or in web search.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/parleygo/parley/pkg/kb"
)

// Source is one citation backing an answer.
type Source struct {
	Title string
	URI   string
}

// Answer is a grounded model response.
type Answer struct {
	Text    string
	Sources []Source
}

// Client asks grounded text questions.
type Client struct {
	genai *genai.Client
	model string
	log   zerolog.Logger
}

// NewClient creates a chat client for the given text model.
func NewClient(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("chat model must not be empty")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	return &Client{genai: gc, model: model, log: log}, nil
}

// AskDocs answers a question grounded in the active knowledge selection. The
// model reads the selection's URLs through the URL context tool; inline file
// content is prepended to the prompt.
func (c *Client) AskDocs(ctx context.Context, question string, kc kb.Context) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question must not be empty")
	}
	if kc.Empty() {
		return Answer{}, fmt.Errorf("no active knowledge to ground the answer in")
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		genai.Text(ComposeDocsPrompt(question, kc)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{URLContext: &genai.URLContext{}}},
		})
	if err != nil {
		return Answer{}, fmt.Errorf("docs query: %w", err)
	}
	answer := extractAnswer(resp)
	c.log.Debug().Int("sources", len(answer.Sources)).Msg("docs query answered")
	return answer, nil
}

// AskSearch answers a question grounded in web search results.
func (c *Client) AskSearch(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question must not be empty")
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		genai.Text(question),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		return Answer{}, fmt.Errorf("search query: %w", err)
	}
	answer := extractAnswer(resp)
	c.log.Debug().Int("sources", len(answer.Sources)).Msg("search query answered")
	return answer, nil
}

// ComposeDocsPrompt renders a question plus the knowledge selection into one
// prompt: URLs are listed for the URL context tool, file content is inlined.
func ComposeDocsPrompt(question string, kc kb.Context) string {
	var b strings.Builder
	b.WriteString("Answer using only the reference material below.\n")
	if len(kc.URLs) > 0 {
		b.WriteString("\nReference URLs:\n")
		for _, u := range kc.URLs {
			b.WriteString("- ")
			b.WriteString(u)
			b.WriteString("\n")
		}
	}
	for _, f := range kc.Files {
		fmt.Fprintf(&b, "\nReference document %q:\n%s\n", f.Name, f.Content)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// extractAnswer pulls the response text and grounding citations.
func extractAnswer(resp *genai.GenerateContentResponse) Answer {
	if resp == nil {
		return Answer{}
	}
	answer := Answer{Text: resp.Text()}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			answer.Sources = append(answer.Sources, Source{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return answer
}
