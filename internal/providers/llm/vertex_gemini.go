package llm

import (
	"context"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/niagahub/niagabot/internal/utils"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Generate runs one unary completion. Empty candidates or empty parts mean
// the provider answered but with a malformed payload, which is a gateway
// failure rather than an internal one.
func (v *VertexGemini) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "VertexGemini.Generate"

	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "generation request failed", err)
	}

	if len(resp.Candidates) == 0 {
		return "", utils.E(utils.CodeBadGateway, op, "provider returned no candidates", nil)
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", utils.E(utils.CodeBadGateway, op, "provider returned no content parts", nil)
	}

	var out string
	for _, part := range cand.Content.Parts {
		if t, ok := part.(vertexgenai.Text); ok {
			out += string(t)
		}
	}
	if out == "" {
		return "", utils.E(utils.CodeBadGateway, op, "provider returned empty text", nil)
	}
	return out, nil
}

func (v *VertexGemini) StreamGenerate(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						out <- string(t)
					}
				}
			}
		}
	}()

	return out, errs
}
